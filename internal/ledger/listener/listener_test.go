package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger"
	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeReader hands out queued messages, then blocks until cancelled.
type fakeReader struct {
	mu    sync.Mutex
	queue []kafka.Message
	errs  []error
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

type stubUseCase struct {
	ledger.UseCase

	mu     sync.Mutex
	inputs []dto.RecordDonationInput
	err    error
}

func (s *stubUseCase) RecordDonation(_ context.Context, input *dto.RecordDonationInput) (*model.DonationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, *input)
	if s.err != nil {
		return nil, s.err
	}
	return &model.DonationRecord{ID: "don-1"}, nil
}

func (s *stubUseCase) recorded() []dto.RecordDonationInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.RecordDonationInput(nil), s.inputs...)
}

func run(t *testing.T, l *DonationListener) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Start(ctx)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("listener did not stop")
		}
	}
}

func TestDonationListener_RecordsCollectedDonations(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := &fakeReader{queue: []kafka.Message{
		{Value: []byte(`{"type":"DonationCollected","donor_id":"d1","location_id":"drive-7","blood_type":"o-","units":1,"collected_by":"nurse"}`)},
		{Value: []byte(`{"type":"SomethingElse","donor_id":"d2"}`)},
		{Value: []byte(`not json`)},
		{Value: []byte(`{"type":"DonationCollected","donor_id":"d3","location_id":"drive-7","blood_type":"Z+","units":1}`)},
		{Value: []byte(`{"type":"DonationCollected","donor_id":"d4","location_id":"drive-7","blood_type":"AB+","units":2}`)},
	}}
	uc := &stubUseCase{}
	stop := run(t, NewDonationListener(reader, uc, logger.NewNop()))

	require.Eventually(t, func() bool { return len(uc.recorded()) == 2 }, time.Second, 10*time.Millisecond)
	stop()

	got := uc.recorded()
	assert.Equal(t, "d1", got[0].DonorID)
	assert.Equal(t, model.BloodTypeONeg, got[0].BloodType)
	assert.Equal(t, "blood_drive", got[0].Source)
	assert.Equal(t, "nurse", got[0].RecordedBy)
	assert.Equal(t, "d4", got[1].DonorID)
	assert.Equal(t, 2, got[1].Units)
}

func TestDonationListener_SurvivesReadAndRecordErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := &fakeReader{
		errs:  []error{errors.New("broker unreachable")},
		queue: []kafka.Message{{Value: []byte(`{"type":"DonationCollected","donor_id":"ghost","location_id":"x","blood_type":"A+","units":1}`)}},
	}
	uc := &stubUseCase{err: model.ErrDonorNotFound}
	l := NewDonationListener(reader, uc, logger.NewNop())
	l.retryBackoff = 10 * time.Millisecond
	stop := run(t, l)

	require.Eventually(t, func() bool { return len(uc.recorded()) == 1 }, time.Second, 10*time.Millisecond)
	stop()
}

func TestDonationListener_StopsDuringBackoff(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := &fakeReader{errs: []error{errors.New("broker unreachable")}}
	l := NewDonationListener(reader, &stubUseCase{}, logger.NewNop())
	l.retryBackoff = time.Hour
	stop := run(t, l)

	time.Sleep(20 * time.Millisecond)
	stop()
}
