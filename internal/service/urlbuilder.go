package service

import (
	"fmt"
	"net/url"
	"strings"
)

// QueryPlaceholder 平台URL模板中的查询占位符
const QueryPlaceholder = "{query}"

// BuildSearchURL 把品牌搜索词按URL组件编码后替换进平台URL模板。
// 纯函数；模板缺少占位符时返回ErrMissingPlaceholder。
func BuildSearchURL(pattern, searchText string) (string, error) {
	if !strings.Contains(pattern, QueryPlaceholder) {
		return "", fmt.Errorf("%w: %s", ErrMissingPlaceholder, pattern)
	}
	// QueryEscape把空格编成+，这里要的是组件编码（%20），与源站搜索框行为一致
	encoded := strings.ReplaceAll(url.QueryEscape(searchText), "+", "%20")
	return strings.ReplaceAll(pattern, QueryPlaceholder, encoded), nil
}
