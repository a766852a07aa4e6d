package view

// Navigator 会话失效时的跳转契约
// from 为原本请求的位置，供登录成功后返回（是否实现返回由上层决定）
type Navigator interface {
	RedirectToLogin(from string)
}

// NavigatorFunc 函数适配器
type NavigatorFunc func(from string)

func (f NavigatorFunc) RedirectToLogin(from string) { f(from) }
