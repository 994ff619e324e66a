package queue

import (
	"encoding/json"

	"github.com/dropsync-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskOrderPlace 供应商下单任务
	TaskOrderPlace = constants.TaskOrderPlace
	// TaskOrderTrackingSync 单个订单物流同步任务
	TaskOrderTrackingSync = constants.TaskOrderTrackingSync
	// TaskOrderStaleReap 过期订单清理与物流巡检任务
	TaskOrderStaleReap = constants.TaskOrderStaleReap
)

// OrderStatusEmailPayload 订单状态邮件任务载荷，收件人在入队时已解析
type OrderStatusEmailPayload struct {
	OrderID        uint   `json:"order_id"`
	OrderNo        string `json:"order_no"`
	Receiver       string `json:"receiver"`
	ReceiverName   string `json:"receiver_name,omitempty"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
}

// OrderPlacePayload 供应商下单任务载荷
type OrderPlacePayload struct {
	OrderID uint `json:"order_id"`
}

// OrderTrackingSyncPayload 物流同步任务载荷
type OrderTrackingSyncPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	return newJSONTask(TaskOrderStatusEmail, payload)
}

// NewOrderPlaceTask 创建供应商下单任务
func NewOrderPlaceTask(payload OrderPlacePayload) (*asynq.Task, error) {
	return newJSONTask(TaskOrderPlace, payload)
}

// NewOrderTrackingSyncTask 创建物流同步任务
func NewOrderTrackingSyncTask(payload OrderTrackingSyncPayload) (*asynq.Task, error) {
	return newJSONTask(TaskOrderTrackingSync, payload)
}

// NewOrderStaleReapTask 创建清理任务
func NewOrderStaleReapTask() *asynq.Task {
	return asynq.NewTask(TaskOrderStaleReap, []byte("{}"))
}

func newJSONTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}
