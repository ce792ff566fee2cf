package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger"
	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// DonationListener records donations collected at blood drives.
type DonationListener struct {
	reader       MessageReader
	uc           ledger.UseCase
	logger       logger.ZapLogger
	retryBackoff time.Duration
}

func NewDonationListener(reader MessageReader, uc ledger.UseCase, log logger.ZapLogger) *DonationListener {
	return &DonationListener{
		reader:       reader,
		uc:           uc,
		logger:       log,
		retryBackoff: time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (l *DonationListener) Start(ctx context.Context) {
	l.logger.Info("Starting donation Kafka listener")
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping donation Kafka listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				l.logger.Info("Stopping donation Kafka listener")
				return
			case <-time.After(l.retryBackoff):
			}
			continue
		}
		l.processMessage(ctx, msg.Value)
	}
}

func (l *DonationListener) processMessage(ctx context.Context, value []byte) {
	var event ledger.DonationCollectedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if event.Type != ledger.EventDonationCollected {
		return
	}

	bt, err := model.ParseBloodType(event.BloodType)
	if err != nil {
		l.logger.Warn("Dropping donation event", zap.String("donor_id", event.DonorID), zap.Error(err))
		return
	}

	d, err := l.uc.RecordDonation(ctx, &dto.RecordDonationInput{
		DonorID:    event.DonorID,
		LocationID: event.LocationID,
		BloodType:  bt,
		Units:      event.Units,
		DonatedAt:  event.CollectedAt,
		RecordedBy: event.CollectedBy,
		Source:     "blood_drive",
	})
	if err != nil {
		l.logger.Error("Failed to record collected donation",
			zap.String("donor_id", event.DonorID),
			zap.String("location_id", event.LocationID),
			zap.Error(err),
		)
		return
	}
	l.logger.Debug("Collected donation recorded", zap.String("donation_id", d.ID))
}
