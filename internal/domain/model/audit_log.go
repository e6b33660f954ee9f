package model

import "time"

// 注文ステータス更新、配送更新など。
type AuditAction string

const (
	//注文の管理者更新（status / paymentStatus / transactionId）
	AuditActionUpdateOrder AuditAction = "UPDATE_ORDER"
	//配送の作成
	AuditActionCreateShipment AuditAction = "CREATE_SHIPMENT"
	//配送の更新
	AuditActionUpdateShipment AuditAction = "UPDATE_SHIPMENT"
	//配送完了による注文ステータスの自動同期
	AuditActionSyncOrderStatus AuditAction = "SYNC_ORDER_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourceShipment AuditResourceType = "shipment"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザー（主に管理者）のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
