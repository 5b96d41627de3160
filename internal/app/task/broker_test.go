package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

type fakeBirthdayService struct {
	mu     sync.Mutex
	calls  []bool
	err    error
	called chan struct{}
}

func newFakeBirthdayService(err error) *fakeBirthdayService {
	return &fakeBirthdayService{err: err, called: make(chan struct{}, 10)}
}

func (f *fakeBirthdayService) Check(_ context.Context, dryRun bool) (*model.BirthdayCheckResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dryRun)
	f.mu.Unlock()
	defer func() { f.called <- struct{}{} }()
	if f.err != nil {
		return nil, f.err
	}
	return &model.BirthdayCheckResult{Date: "2024-05-10", DryRun: dryRun}, nil
}

type fakeResetService struct {
	mu   sync.Mutex
	reqs []model.ResetRequest
}

func (f *fakeResetService) Reset(_ context.Context, req model.ResetRequest) (*model.ResetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return &model.ResetResult{ResetType: req.ResetType}, nil
}

type panicJob struct{}

func (panicJob) Run()         { panic("boom") }
func (panicJob) Name() string { return "panicJob" }

type signalJob struct{ done chan struct{} }

func (j signalJob) Run()         { close(j.done) }
func (j signalJob) Name() string { return "signalJob" }

func waitCalled(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("等待任务执行超时")
	}
}

func TestRegisterCronJobs(t *testing.T) {
	testCases := []struct {
		name        string
		opts        BrokerOptions
		wantEntries int
		wantErr     bool
	}{
		{"生日与保留任务都启用", BrokerOptions{BirthdayEnabled: true, RetentionDays: 30}, 2, false},
		{"仅生日任务", BrokerOptions{BirthdayEnabled: true}, 1, false},
		{"全部关闭", BrokerOptions{}, 0, false},
		{"非法的 cron 表达式", BrokerOptions{BirthdayEnabled: true, BirthdayCron: "every day"}, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBroker(newFakeBirthdayService(nil), &fakeResetService{}, tc.opts)
			defer b.Stop()

			err := b.RegisterCronJobs()
			if (err != nil) != tc.wantErr {
				t.Fatalf("RegisterCronJobs() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got := len(b.cron.Entries()); got != tc.wantEntries {
				t.Errorf("注册的任务数 = %d, want %d", got, tc.wantEntries)
			}
		})
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	b := NewBroker(nil, nil, BrokerOptions{})
	defer b.Stop()

	if err := b.Dispatch(panicJob{}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	done := make(chan struct{})
	if err := b.Dispatch(signalJob{done: done}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	waitCalled(t, done)
}

func TestDispatchRejectsWhenQueueFull(t *testing.T) {
	// 没有 worker 且容量为 1 的队列，第二个任务必然被拒绝
	b := &Broker{jobQueue: make(chan Job, 1), logger: slog.Default(), birthdaySvc: newFakeBirthdayService(nil)}

	if err := b.DispatchBirthdayCheck(); err != nil {
		t.Fatalf("第一次入队 error = %v", err)
	}
	if err := b.DispatchBirthdayCheck(); !errors.Is(err, constant.ErrQueueFull) {
		t.Errorf("队列已满时 error = %v, want ErrQueueFull", err)
	}
}

func TestDispatchBirthdayCheckWithoutService(t *testing.T) {
	b := NewBroker(nil, nil, BrokerOptions{})
	defer b.Stop()

	if err := b.DispatchBirthdayCheck(); !errors.Is(err, constant.ErrBadRequest) {
		t.Errorf("error = %v, want ErrBadRequest", err)
	}
}

func TestDispatchBirthdayCheck(t *testing.T) {
	svc := newFakeBirthdayService(nil)
	b := NewBroker(svc, nil, BrokerOptions{BirthdayEnabled: true})
	defer b.Stop()

	if err := b.DispatchBirthdayCheck(); err != nil {
		t.Fatalf("DispatchBirthdayCheck() error = %v", err)
	}
	waitCalled(t, svc.called)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.calls) != 1 || svc.calls[0] {
		t.Errorf("calls = %v, want 一次非预演执行", svc.calls)
	}
}

func TestCheckAndRunMissedBirthdayNews(t *testing.T) {
	t.Run("启用时在后台补跑一次", func(t *testing.T) {
		svc := newFakeBirthdayService(nil)
		b := NewBroker(svc, nil, BrokerOptions{BirthdayEnabled: true})
		defer b.Stop()

		b.CheckAndRunMissedBirthdayNews()
		waitCalled(t, svc.called)
	})

	t.Run("锁被占用时静默跳过", func(t *testing.T) {
		svc := newFakeBirthdayService(fmt.Errorf("%w: %w", constant.ErrTaskRunning, constant.ErrConflict))
		b := NewBroker(svc, nil, BrokerOptions{BirthdayEnabled: true})
		defer b.Stop()

		b.CheckAndRunMissedBirthdayNews()
		waitCalled(t, svc.called)
	})

	t.Run("关闭时不执行", func(t *testing.T) {
		svc := newFakeBirthdayService(nil)
		b := NewBroker(svc, nil, BrokerOptions{BirthdayEnabled: false})
		defer b.Stop()

		b.CheckAndRunMissedBirthdayNews()
		select {
		case <-svc.called:
			t.Fatal("生日检查不应被执行")
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestEventRetentionJob(t *testing.T) {
	reset := &fakeResetService{}
	b := NewBroker(nil, reset, BrokerOptions{})
	defer b.Stop()

	NewEventRetentionJob(reset, 45, b.logger).Run()

	if len(reset.reqs) != 1 {
		t.Fatalf("Reset 调用次数 = %d, want 1", len(reset.reqs))
	}
	req := reset.reqs[0]
	if req.ResetType != constant.ResetTypeOld || req.DaysToKeep != 45 || !req.ConfirmReset {
		t.Errorf("Reset 请求 = %+v, want old/45/confirmed", req)
	}
}
