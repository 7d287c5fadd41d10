package repository

import (
	"time"

	"github.com/sevans717/aphila-sub007/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	FindByID(id uint) (*models.User, error)
	UpdateOnlineStatus(userID uint, isOnline bool) error
}

// LikeRepositoryInterface defines the contract for like repository operations
type LikeRepositoryInterface interface {
	CreateIfAbsent(like *models.Like) (*models.Like, bool, error)
	Find(likerID, likedID uint) (*models.Like, error)
	DeletePair(userA, userB uint) error
}

// BlockRepositoryInterface defines the contract for block repository operations
type BlockRepositoryInterface interface {
	CreateIfAbsent(block *models.Block) (*models.Block, bool, error)
	ExistsBetween(userA, userB uint) (bool, error)
}

// MatchRepositoryInterface defines the contract for match repository operations
type MatchRepositoryInterface interface {
	FindByID(id uint) (*models.Match, error)
	FindByPair(userA, userB uint) (*models.Match, error)
	CreateOrReactivate(userA, userB uint) (*models.Match, bool, error)
	UpdateStatus(matchID uint, from []models.MatchStatus, to models.MatchStatus) (bool, error)
	ListForUser(userID uint, limit int) ([]models.Match, error)
}

// MessageRepositoryInterface defines the contract for message repository operations
type MessageRepositoryInterface interface {
	CreateWithSeq(message *models.Message) (*models.Message, bool, error)
	FindByID(id uint) (*models.Message, error)
	FindByNonce(matchID, senderID uint, clientNonce string) (*models.Message, error)
	ListByMatch(matchID uint, beforeSeq uint64, limit int) ([]models.Message, error)
	MarkDelivered(messageID uint) (bool, error)
	MarkRead(messageID uint) (bool, error)
}

// ReactionRepositoryInterface defines the contract for message reaction operations
type ReactionRepositoryInterface interface {
	CreateIfAbsent(reaction *models.MessageReaction) (*models.MessageReaction, bool, error)
	ListByMessage(messageID uint) ([]models.MessageReaction, error)
}

// DeviceRepositoryInterface defines the contract for device repository operations
type DeviceRepositoryInterface interface {
	Upsert(userID uint, deviceID, token, platform string) (*models.Device, error)
	FindByID(id uint) (*models.Device, error)
	FindByDeviceID(userID uint, deviceID string) (*models.Device, error)
	ActiveForUser(userID uint) ([]models.Device, error)
	ActiveForTopic(topic string) ([]models.Device, error)
	Deactivate(id uint) error
}

// TopicRepositoryInterface defines the contract for topic subscription operations
type TopicRepositoryInterface interface {
	Subscribe(userID, deviceID uint, topic string) (*models.TopicSubscription, bool, error)
	Unsubscribe(deviceID uint, topic string) error
}

// NotificationRepositoryInterface defines the contract for the durable
// notification queue consumed by the dispatcher.
type NotificationRepositoryInterface interface {
	CreateJob(job *models.NotificationJob) error
	ClaimPending(limit int) ([]models.NotificationJob, error)
	ReclaimStale(olderThan time.Duration) (int64, error)
	MarkJobDone(jobID uint) error
	EnsureDelivery(jobID, deviceID uint) (*models.NotificationDelivery, error)
	DueDeliveries(now time.Time, limit int) ([]models.NotificationDelivery, error)
	JobByID(jobID uint) (*models.NotificationJob, error)
	MarkDelivered(deliveryID uint) error
	MarkAttempted(deliveryID uint, attempts int, nextRetry *time.Time, lastError string) error
	MarkGaveUp(deliveryID uint, lastError string) error
	OpenDeliveryCount(jobID uint) (int64, error)
	CleanupOld(olderThan time.Duration) error
}
