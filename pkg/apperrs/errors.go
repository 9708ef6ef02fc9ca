package apperrs

import (
	"errors"
	"net/http"
)

// 系统级错误分类, 各层用 fmt.Errorf("%w: ...") 包装补充细节
var (
	// ErrConnection 外部服务连接失败
	ErrConnection = errors.New("服务连接失败")

	// ErrInvalidContent 外部响应存在但内容无效(含非成功状态码)
	ErrInvalidContent = errors.New("无效的请求内容")

	// ErrInvalidJSON 响应体无法解析为预期的JSON结构
	ErrInvalidJSON = errors.New("无效的JSON格式")

	// ErrInvalidROCDate 民国日期格式无效或日期不存在
	ErrInvalidROCDate = errors.New("无效的民国日期格式")

	// ErrStockPriceNotFound 缓存与外部来源都查无股价
	ErrStockPriceNotFound = errors.New("查无股价资料")

	// ErrNotFound 找不到资源
	ErrNotFound = errors.New("找不到资源")

	// ErrInternal 存储或其他内部错误
	ErrInternal = errors.New("内部错误")
)

// HTTPStatus 将错误映射为HTTP状态码
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidContent), errors.Is(err, ErrInvalidROCDate):
		return http.StatusBadRequest
	case errors.Is(err, ErrStockPriceNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConnection), errors.Is(err, ErrInvalidJSON):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
