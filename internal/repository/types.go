package repository

import "time"

// PlacedUpdate 供应商下单成功后写入的字段
type PlacedUpdate struct {
	ExternalOrderID     string
	ExternalOrderNumber string
	ExternalStatus      string
	TrackingNumber      string
	LogisticName        string
	At                  time.Time
}

// TrackingUpdate 物流刷新写入的字段
type TrackingUpdate struct {
	TrackingNumber string
	TrackingURL    string
	Stage          string
	ExternalStatus string
	At             time.Time
}
