package service

import (
	"sync"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

// MockLikeRepository is a mock implementation of LikeRepository for testing
type MockLikeRepository struct {
	mu     sync.Mutex
	likes  map[[2]uint]*models.Like
	nextID uint
}

func NewMockLikeRepository() *MockLikeRepository {
	return &MockLikeRepository{likes: make(map[[2]uint]*models.Like), nextID: 1}
}

func (m *MockLikeRepository) CreateIfAbsent(like *models.Like) (*models.Like, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uint{like.LikerID, like.LikedID}
	if existing, ok := m.likes[key]; ok {
		return existing, false, nil
	}
	like.ID = m.nextID
	m.nextID++
	m.likes[key] = like
	return like, true, nil
}

func (m *MockLikeRepository) Find(likerID, likedID uint) (*models.Like, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if like, ok := m.likes[[2]uint{likerID, likedID}]; ok {
		return like, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockLikeRepository) DeletePair(userA, userB uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.likes, [2]uint{userA, userB})
	delete(m.likes, [2]uint{userB, userA})
	return nil
}

// MockBlockRepository is a mock implementation of BlockRepository for testing
type MockBlockRepository struct {
	mu     sync.Mutex
	blocks map[[2]uint]*models.Block
	nextID uint
}

func NewMockBlockRepository() *MockBlockRepository {
	return &MockBlockRepository{blocks: make(map[[2]uint]*models.Block), nextID: 1}
}

func (m *MockBlockRepository) CreateIfAbsent(block *models.Block) (*models.Block, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uint{block.BlockerID, block.BlockedID}
	if existing, ok := m.blocks[key]; ok {
		return existing, false, nil
	}
	block.ID = m.nextID
	m.nextID++
	m.blocks[key] = block
	return block, true, nil
}

func (m *MockBlockRepository) ExistsBetween(userA, userB uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[[2]uint{userA, userB}]; ok {
		return true, nil
	}
	if _, ok := m.blocks[[2]uint{userB, userA}]; ok {
		return true, nil
	}
	return false, nil
}

// MockMatchRepository is a mock implementation of MatchRepository for testing.
// It mirrors the unique pair index: one row per unordered pair.
type MockMatchRepository struct {
	mu      sync.Mutex
	matches map[uint]*models.Match
	byPair  map[[2]uint]uint
	nextID  uint
}

func NewMockMatchRepository() *MockMatchRepository {
	return &MockMatchRepository{
		matches: make(map[uint]*models.Match),
		byPair:  make(map[[2]uint]uint),
		nextID:  1,
	}
}

func (m *MockMatchRepository) FindByID(id uint) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if match, ok := m.matches[id]; ok {
		copied := *match
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMatchRepository) FindByPair(userA, userB uint) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, b := models.NormalizePair(userA, userB)
	if id, ok := m.byPair[[2]uint{a, b}]; ok {
		copied := *m.matches[id]
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMatchRepository) CreateOrReactivate(userA, userB uint) (*models.Match, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, b := models.NormalizePair(userA, userB)
	if id, ok := m.byPair[[2]uint{a, b}]; ok {
		existing := m.matches[id]
		if existing.Status == models.MatchUnmatched {
			existing.Status = models.MatchActive
			copied := *existing
			return &copied, true, nil
		}
		copied := *existing
		return &copied, false, nil
	}
	match := &models.Match{ID: m.nextID, UserAID: a, UserBID: b, Status: models.MatchActive}
	m.nextID++
	m.matches[match.ID] = match
	m.byPair[[2]uint{a, b}] = match.ID
	copied := *match
	return &copied, true, nil
}

func (m *MockMatchRepository) UpdateStatus(matchID uint, from []models.MatchStatus, to models.MatchStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if match.Status == status {
			match.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMatchRepository) ListForUser(userID uint, limit int) ([]models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Match
	for _, match := range m.matches {
		if len(result) >= limit {
			break
		}
		if match.HasParty(userID) {
			result = append(result, *match)
		}
	}
	return result, nil
}

// MockMessageRepository is a mock implementation of MessageRepository for
// testing. Seq assignment and nonce dedup mirror the real unique indexes.
type MockMessageRepository struct {
	mu       sync.Mutex
	messages map[uint]*models.Message
	nextID   uint

	failCreate error
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{messages: make(map[uint]*models.Message), nextID: 1}
}

func (m *MockMessageRepository) CreateWithSeq(message *models.Message) (*models.Message, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return nil, false, m.failCreate
	}
	for _, existing := range m.messages {
		if existing.MatchID == message.MatchID && existing.SenderID == message.SenderID &&
			existing.ClientNonce == message.ClientNonce {
			copied := *existing
			return &copied, true, nil
		}
	}
	var maxSeq uint64
	for _, existing := range m.messages {
		if existing.MatchID == message.MatchID && existing.Seq > maxSeq {
			maxSeq = existing.Seq
		}
	}
	message.ID = m.nextID
	m.nextID++
	message.Seq = maxSeq + 1
	stored := *message
	m.messages[message.ID] = &stored
	return message, false, nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok {
		copied := *msg
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) FindByNonce(matchID, senderID uint, clientNonce string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.MatchID == matchID && msg.SenderID == senderID && msg.ClientNonce == clientNonce {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) ListByMatch(matchID uint, beforeSeq uint64, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Message
	for _, msg := range m.messages {
		if msg.MatchID != matchID {
			continue
		}
		if beforeSeq > 0 && msg.Seq >= beforeSeq {
			continue
		}
		result = append(result, *msg)
	}
	// Chronological by seq; the map iteration order is random.
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Seq < result[i].Seq {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (m *MockMessageRepository) MarkDelivered(messageID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || msg.Status != models.StatusSent {
		return false, nil
	}
	msg.Status = models.StatusDelivered
	return true, nil
}

func (m *MockMessageRepository) MarkRead(messageID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || (msg.Status != models.StatusSent && msg.Status != models.StatusDelivered) {
		return false, nil
	}
	msg.Status = models.StatusRead
	return true, nil
}

// MockReactionRepository is a mock implementation of ReactionRepository
type MockReactionRepository struct {
	mu        sync.Mutex
	reactions map[uint]*models.MessageReaction
	nextID    uint
}

func NewMockReactionRepository() *MockReactionRepository {
	return &MockReactionRepository{reactions: make(map[uint]*models.MessageReaction), nextID: 1}
}

func (m *MockReactionRepository) CreateIfAbsent(reaction *models.MessageReaction) (*models.MessageReaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reactions {
		if existing.MessageID == reaction.MessageID && existing.UserID == reaction.UserID &&
			existing.Reaction == reaction.Reaction {
			return existing, false, nil
		}
	}
	reaction.ID = m.nextID
	m.nextID++
	m.reactions[reaction.ID] = reaction
	return reaction, true, nil
}

func (m *MockReactionRepository) ListByMessage(messageID uint) ([]models.MessageReaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.MessageReaction
	for _, reaction := range m.reactions {
		if reaction.MessageID == messageID {
			result = append(result, *reaction)
		}
	}
	return result, nil
}

// MockDeviceRepository is a mock implementation of DeviceRepository
type MockDeviceRepository struct {
	mu      sync.Mutex
	devices map[uint]*models.Device
	nextID  uint
}

func NewMockDeviceRepository() *MockDeviceRepository {
	return &MockDeviceRepository{devices: make(map[uint]*models.Device), nextID: 1}
}

func (m *MockDeviceRepository) Upsert(userID uint, deviceID, token, platform string) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, device := range m.devices {
		if device.UserID == userID && device.DeviceID == deviceID {
			device.Token = token
			device.Platform = platform
			device.IsActive = true
			return device, nil
		}
	}
	device := &models.Device{
		ID:       m.nextID,
		UserID:   userID,
		DeviceID: deviceID,
		Token:    token,
		Platform: platform,
		IsActive: true,
	}
	m.nextID++
	m.devices[device.ID] = device
	return device, nil
}

func (m *MockDeviceRepository) FindByID(id uint) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if device, ok := m.devices[id]; ok {
		return device, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDeviceRepository) FindByDeviceID(userID uint, deviceID string) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, device := range m.devices {
		if device.UserID == userID && device.DeviceID == deviceID {
			return device, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDeviceRepository) ActiveForUser(userID uint) ([]models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Device
	for _, device := range m.devices {
		if device.UserID == userID && device.IsActive {
			result = append(result, *device)
		}
	}
	return result, nil
}

func (m *MockDeviceRepository) ActiveForTopic(topic string) ([]models.Device, error) {
	return nil, nil
}

func (m *MockDeviceRepository) Deactivate(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if device, ok := m.devices[id]; ok {
		device.IsActive = false
	}
	return nil
}

// MockTopicRepository is a mock implementation of TopicRepository
type MockTopicRepository struct {
	mu     sync.Mutex
	subs   map[uint]*models.TopicSubscription
	nextID uint
}

func NewMockTopicRepository() *MockTopicRepository {
	return &MockTopicRepository{subs: make(map[uint]*models.TopicSubscription), nextID: 1}
}

func (m *MockTopicRepository) Subscribe(userID, deviceID uint, topic string) (*models.TopicSubscription, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		if sub.DeviceID == deviceID && sub.Topic == topic {
			if !sub.IsActive {
				sub.IsActive = true
				return sub, true, nil
			}
			return sub, false, nil
		}
	}
	sub := &models.TopicSubscription{
		ID:       m.nextID,
		UserID:   userID,
		DeviceID: deviceID,
		Topic:    topic,
		IsActive: true,
	}
	m.nextID++
	m.subs[sub.ID] = sub
	return sub, true, nil
}

func (m *MockTopicRepository) Unsubscribe(deviceID uint, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		if sub.DeviceID == deviceID && sub.Topic == topic {
			sub.IsActive = false
		}
	}
	return nil
}

// fakeHub records live deliveries and lets tests toggle online state.
type fakeHub struct {
	mu        sync.Mutex
	online    map[uint]bool
	delivered map[uint][]interface{}
}

func newFakeHub() *fakeHub {
	return &fakeHub{online: make(map[uint]bool), delivered: make(map[uint][]interface{})}
}

func (h *fakeHub) setOnline(userID uint, online bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.online[userID] = online
}

func (h *fakeHub) Deliver(userID uint, event interface{}) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.online[userID] {
		return false
	}
	h.delivered[userID] = append(h.delivered[userID], event)
	return true
}

func (h *fakeHub) deliveries(userID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.delivered[userID])
}

// fakeQueue records dispatcher enqueues.
type queuedJob struct {
	UserID  uint
	Topic   string
	Kind    string
	Payload map[string]interface{}
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{}
}

func (q *fakeQueue) Enqueue(userID uint, kind string, payload map[string]interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, queuedJob{UserID: userID, Kind: kind, Payload: payload})
	return nil
}

func (q *fakeQueue) EnqueueTopic(topic, kind string, payload map[string]interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, queuedJob{Topic: topic, Kind: kind, Payload: payload})
	return nil
}

func (q *fakeQueue) jobsFor(userID uint, kind string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, job := range q.jobs {
		if job.UserID == userID && job.Kind == kind {
			n++
		}
	}
	return n
}
