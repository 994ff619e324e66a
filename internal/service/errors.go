package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 参数校验失败
	ErrValidation = errors.New("validation failed")
	// ErrInvalidOrderID 订单 ID 非法
	ErrInvalidOrderID = fmt.Errorf("%w: order id must be a positive integer", ErrValidation)
	// ErrInvalidProductID 商品 ID 非法
	ErrInvalidProductID = fmt.Errorf("%w: product id must be a positive integer", ErrValidation)
	// ErrInvalidStatus 订单状态不在允许集合内
	ErrInvalidStatus = fmt.Errorf("%w: unsupported order status", ErrValidation)
	// ErrOrderItemsEmpty 订单没有订单项
	ErrOrderItemsEmpty = fmt.Errorf("%w: order has no items", ErrValidation)
	// ErrProductNotLinked 商品未关联供应商商品
	ErrProductNotLinked = fmt.Errorf("%w: product is not linked to a provider product", ErrValidation)

	ErrOrderNotFound       = errors.New("order not found")
	ErrFulfillmentNotFound = errors.New("fulfillment record not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrAlreadyPlaced       = errors.New("order already placed with provider")
	ErrNotPaid             = errors.New("order is not paid")
	// ErrPlacementInProgress 另一次提交仍在进行，尚未超过中断判定时长
	ErrPlacementInProgress = fmt.Errorf("%w: submission still in progress", ErrAlreadyPlaced)
	ErrUpstreamProvider    = errors.New("upstream provider error")
	ErrNoTrackingYet       = errors.New("No tracking number yet, the provider has not shipped this order")
	ErrPersistence         = errors.New("persistence failure")

	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrQueueUnavailable          = errors.New("queue unavailable")
)

// UpstreamError 供应商调用失败，保留供应商返回的原始信息
type UpstreamError struct {
	Operation string
	Message   string
}

func (e *UpstreamError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("upstream provider error: %s", e.Message)
	}
	return fmt.Sprintf("upstream provider error (%s): %s", e.Operation, e.Message)
}

// Is 使 errors.Is(err, ErrUpstreamProvider) 成立
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamProvider
}

func newUpstreamError(operation, message string) error {
	return &UpstreamError{Operation: operation, Message: message}
}

func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
