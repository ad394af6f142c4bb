package service

import "errors"

// 台账建立之前发生的错误直接返回给调用方，不写任何执行记录；
// 台账建立之后的错误一律落入error_message并把执行打到failed。
var (
	// ErrBrandNotFound 品牌不存在
	ErrBrandNotFound = errors.New("品牌不存在")
	// ErrPlatformNotFound 品牌所属平台不存在
	ErrPlatformNotFound = errors.New("品牌所属平台不存在")
	// ErrBrandInactive 品牌已停用
	ErrBrandInactive = errors.New("品牌已停用")
	// ErrPlatformInactive 平台已停用
	ErrPlatformInactive = errors.New("平台已停用")
	// ErrAlreadyRunning 该品牌+平台已有进行中的执行（软失败，不新建台账）
	ErrAlreadyRunning = errors.New("该品牌已有进行中的抓取执行")
	// ErrMissingPlaceholder 平台URL模板缺少查询占位符
	ErrMissingPlaceholder = errors.New("URL模板缺少{query}占位符")
)
