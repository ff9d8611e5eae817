package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"example.com/food-ordering/pkg/kafka"
)

// =============================================================================
// Моки
// =============================================================================

// MockRepository — мок Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, msg *Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockRepository) SaveTx(tx *gorm.DB, msg *Message) error {
	args := m.Called(tx, msg)
	return args.Error(0)
}

func (m *MockRepository) UpdateStatusTx(tx *gorm.DB, msg *Message) error {
	args := m.Called(tx, msg)
	return args.Error(0)
}

func (m *MockRepository) GetPending(ctx context.Context, limit int) ([]*Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Message), args.Error(1)
}

func (m *MockRepository) GetBySagaAndStatus(ctx context.Context, sagaID string, sagaStatus SagaStatus) (*Message, error) {
	args := m.Called(ctx, sagaID, sagaStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Message), args.Error(1)
}

func (m *MockRepository) MarkPublished(ctx context.Context, id string, version int) error {
	args := m.Called(ctx, id, version)
	return args.Error(0)
}

func (m *MockRepository) MarkFailed(ctx context.Context, id string, version int, pubErr error) error {
	args := m.Called(ctx, id, version, pubErr)
	return args.Error(0)
}

func (m *MockRepository) MarkDeadLetter(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockProducer — мок KafkaProducer.
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) SendMessage(ctx context.Context, msg *kafka.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// =============================================================================
// Тесты Sweeper
// =============================================================================

func newTestMessage() *Message {
	return &Message{
		ID:         "outbox-1",
		SagaID:     "saga-123",
		Type:       "payment-request",
		Topic:      kafka.TopicPaymentRequest,
		Payload:    []byte(`{"saga_id":"saga-123"}`),
		SagaStatus: SagaStarted,
		Status:     StatusStarted,
		Version:    0,
		CreatedAt:  time.Now(),
	}
}

func TestSweeper_PublishSingle_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	producer := new(MockProducer)

	sweeper := NewSweeper(repo, producer, DefaultSweeperConfig(), "payment-outbox")
	record := newTestMessage()

	// Ключ сообщения — saga_id для партиционирования
	producer.On("SendMessage", ctx, mock.MatchedBy(func(msg *kafka.Message) bool {
		return msg.Topic == kafka.TopicPaymentRequest && string(msg.Key) == "saga-123"
	})).Return(nil)
	repo.On("MarkPublished", ctx, "outbox-1", 0).Return(nil)

	err := sweeper.PublishSingle(ctx, record)

	require.NoError(t, err)
	producer.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSweeper_PublishSingle_KafkaError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	producer := new(MockProducer)

	sweeper := NewSweeper(repo, producer, DefaultSweeperConfig(), "payment-outbox")
	record := newTestMessage()

	kafkaErr := errors.New("broker unavailable")
	producer.On("SendMessage", ctx, mock.Anything).Return(kafkaErr)
	repo.On("MarkFailed", ctx, "outbox-1", 0, kafkaErr).Return(nil)

	err := sweeper.PublishSingle(ctx, record)

	assert.ErrorIs(t, err, kafkaErr)
	repo.AssertExpectations(t)
	// MarkPublished не должен вызываться при ошибке Kafka
	repo.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything, mock.Anything)
}

func TestSweeper_Sweep_DeadLetter(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	producer := new(MockProducer)

	cfg := DefaultSweeperConfig()
	cfg.MaxRetries = 3
	sweeper := NewSweeper(repo, producer, cfg, "payment-outbox")

	// Запись с исчерпанными попытками выводится из очереди без публикации
	record := newTestMessage()
	record.Status = StatusFailed
	record.RetryCount = 3

	repo.On("GetPending", ctx, cfg.BatchSize).Return([]*Message{record}, nil)
	repo.On("MarkDeadLetter", ctx, "outbox-1").Return(nil)

	sweeper.sweep(ctx)

	repo.AssertExpectations(t)
	producer.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestSweeper_Sweep_RetriesFailedRecords(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	producer := new(MockProducer)

	sweeper := NewSweeper(repo, producer, DefaultSweeperConfig(), "payment-outbox")

	// FAILED запись в пределах лимита публикуется повторно
	record := newTestMessage()
	record.Status = StatusFailed
	record.RetryCount = 2
	record.Version = 2

	repo.On("GetPending", ctx, mock.Anything).Return([]*Message{record}, nil)
	producer.On("SendMessage", ctx, mock.Anything).Return(nil)
	repo.On("MarkPublished", ctx, "outbox-1", 2).Return(nil)

	sweeper.sweep(ctx)

	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestSweeper_Sweep_ConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	producer := new(MockProducer)

	sweeper := NewSweeper(repo, producer, DefaultSweeperConfig(), "payment-outbox")
	record := newTestMessage()

	// Другой инстанс уже опубликовал запись: CAS не проходит, sweep не падает
	repo.On("GetPending", ctx, mock.Anything).Return([]*Message{record}, nil)
	producer.On("SendMessage", ctx, mock.Anything).Return(nil)
	repo.On("MarkPublished", ctx, "outbox-1", 0).Return(ErrConcurrentUpdate)

	sweeper.sweep(ctx)

	repo.AssertExpectations(t)
}
