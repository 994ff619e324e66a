package service

import (
	"context"

	"github.com/dropsync-next/internal/queue"
)

// StatusEmail 订单状态邮件内容，收件人已解析
type StatusEmail struct {
	OrderID        uint
	OrderNo        string
	Receiver       string
	ReceiverName   string
	PreviousStatus string
	Status         string
	Amount         string
	Currency       string
	TrackingNumber string
	TrackingURL    string
}

// StatusEmailDispatcher 订单状态邮件投递
type StatusEmailDispatcher interface {
	// DispatchOrderStatus 投递邮件，sent 表示邮件已发出或已成功入队
	DispatchOrderStatus(ctx context.Context, email StatusEmail) (bool, error)
}

// QueueEmailDispatcher 通过异步队列投递，由 worker 发送
type QueueEmailDispatcher struct {
	client *queue.Client
}

// NewQueueEmailDispatcher 创建队列投递器
func NewQueueEmailDispatcher(client *queue.Client) *QueueEmailDispatcher {
	return &QueueEmailDispatcher{client: client}
}

// DispatchOrderStatus 入队订单状态邮件任务
func (d *QueueEmailDispatcher) DispatchOrderStatus(_ context.Context, email StatusEmail) (bool, error) {
	if d == nil || !d.client.Enabled() {
		return false, ErrQueueUnavailable
	}
	if err := d.client.EnqueueOrderStatusEmail(ToOrderStatusEmailPayload(email)); err != nil {
		return false, err
	}
	return true, nil
}

// DirectEmailDispatcher 同步 SMTP 发送
type DirectEmailDispatcher struct {
	email *EmailService
}

// NewDirectEmailDispatcher 创建同步投递器
func NewDirectEmailDispatcher(email *EmailService) *DirectEmailDispatcher {
	return &DirectEmailDispatcher{email: email}
}

// DispatchOrderStatus 直接发送订单状态邮件
func (d *DirectEmailDispatcher) DispatchOrderStatus(_ context.Context, email StatusEmail) (bool, error) {
	if d == nil || d.email == nil {
		return false, ErrEmailServiceDisabled
	}
	if err := d.email.SendOrderStatusEmail(email.Receiver, toEmailInput(email)); err != nil {
		return false, err
	}
	return true, nil
}

// NewStatusEmailDispatcher 队列可用时走队列，否则同步发送
func NewStatusEmailDispatcher(queueClient *queue.Client, email *EmailService) StatusEmailDispatcher {
	if queueClient.Enabled() {
		return NewQueueEmailDispatcher(queueClient)
	}
	return NewDirectEmailDispatcher(email)
}

// ToOrderStatusEmailPayload 转换为队列载荷
func ToOrderStatusEmailPayload(email StatusEmail) queue.OrderStatusEmailPayload {
	return queue.OrderStatusEmailPayload{
		OrderID:        email.OrderID,
		OrderNo:        email.OrderNo,
		Receiver:       email.Receiver,
		ReceiverName:   email.ReceiverName,
		PreviousStatus: email.PreviousStatus,
		Status:         email.Status,
		Amount:         email.Amount,
		Currency:       email.Currency,
		TrackingNumber: email.TrackingNumber,
		TrackingURL:    email.TrackingURL,
	}
}

// FromOrderStatusEmailPayload 从队列载荷还原
func FromOrderStatusEmailPayload(payload queue.OrderStatusEmailPayload) StatusEmail {
	return StatusEmail{
		OrderID:        payload.OrderID,
		OrderNo:        payload.OrderNo,
		Receiver:       payload.Receiver,
		ReceiverName:   payload.ReceiverName,
		PreviousStatus: payload.PreviousStatus,
		Status:         payload.Status,
		Amount:         payload.Amount,
		Currency:       payload.Currency,
		TrackingNumber: payload.TrackingNumber,
		TrackingURL:    payload.TrackingURL,
	}
}

// SendStatusEmail worker 侧发送已入队的状态邮件
func (s *EmailService) SendStatusEmail(email StatusEmail) error {
	return s.SendOrderStatusEmail(email.Receiver, toEmailInput(email))
}

func toEmailInput(email StatusEmail) OrderStatusEmailInput {
	return OrderStatusEmailInput{
		OrderNo:        email.OrderNo,
		ReceiverName:   email.ReceiverName,
		Status:         email.Status,
		Amount:         email.Amount,
		Currency:       email.Currency,
		TrackingNumber: email.TrackingNumber,
		TrackingURL:    email.TrackingURL,
	}
}
