package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如支付未完成但职位仍可重试）
// - 5xxx：系统错误（需要中断流程）
const (
	OK             = 0
	PaymentPending = 4002
	PaymentExpired = 4010
	SystemError    = 5000
)
