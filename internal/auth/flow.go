// Package auth drives the mobile-number / OTP login with its resend cooldown.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/mithrel/docman/internal/apperr"
)

const (
	// CooldownSeconds is the wait before another OTP may be requested.
	CooldownSeconds = 30
	MinMobileLength = 10
	MinOTPLength    = 4
)

// Phase is the state of a Flow.
type Phase int

const (
	EnteringMobile Phase = iota
	AwaitingOTP
)

func (p Phase) String() string {
	if p == AwaitingOTP {
		return "awaiting_otp"
	}
	return "entering_mobile"
}

var (
	// ErrCooldown is wrapped by the validation error returned while the
	// resend cooldown is still running.
	ErrCooldown = errors.New("otp cooldown active")
	// ErrClosed is returned once the flow finished or was torn down.
	ErrClosed = errors.New("login flow closed")
	// ErrSuperseded is returned when the number was changed or the flow
	// closed while the request was in flight. The response is dropped.
	ErrSuperseded = errors.New("login flow changed while request was pending")
)

// OTPService is the remote side of the login.
type OTPService interface {
	GenerateOTP(ctx context.Context, mobile string) error
	ValidateOTP(ctx context.Context, mobile, otp string) (string, error)
}

// State is a point-in-time view of a Flow.
type State struct {
	Phase    Phase
	Mobile   string
	OTP      string
	Cooldown int
	Pending  bool
	Done     bool
}

// Flow is the OTP login state machine. It allows one outbound request at a
// time; overlapping calls fail with a Busy error instead of queueing.
type Flow struct {
	svc   OTPService
	clock Clock
	log   *zap.Logger
	sem   *semaphore.Weighted

	mu       sync.Mutex
	phase    Phase
	mobile   string
	otp      string
	cooldown int
	pending  bool
	closed   bool
	epoch    uint64
	tickGen  uint64
	tickStop chan struct{}
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock replaces the wall clock driving the countdown.
func WithClock(c Clock) Option {
	return func(f *Flow) { f.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFlow returns a Flow in EnteringMobile.
func NewFlow(svc OTPService, opts ...Option) *Flow {
	f := &Flow{
		svc:   svc,
		clock: SystemClock(),
		log:   zap.NewNop(),
		sem:   semaphore.NewWeighted(1),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// RequestOTP sends an OTP to mobile. From AwaitingOTP it is only allowed
// once the cooldown reached zero. On failure the state is left untouched.
func (f *Flow) RequestOTP(ctx context.Context, mobile string) error {
	const op = "auth.request_otp"
	if len(mobile) < MinMobileLength {
		return apperr.Validation(op, "Please enter a valid mobile number (at least %d digits)", MinMobileLength)
	}
	f.mu.Lock()
	if err := f.checkRequestLocked(op); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	return f.request(ctx, op, mobile)
}

// Resend repeats the OTP request for the stored number. Only allowed from
// AwaitingOTP with the cooldown at zero.
func (f *Flow) Resend(ctx context.Context) error {
	const op = "auth.resend_otp"
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.phase != AwaitingOTP {
		f.mu.Unlock()
		return apperr.Validation(op, "no OTP has been requested yet")
	}
	if err := f.checkRequestLocked(op); err != nil {
		f.mu.Unlock()
		return err
	}
	mobile := f.mobile
	f.mu.Unlock()
	return f.request(ctx, op, mobile)
}

func (f *Flow) checkRequestLocked(op string) error {
	if f.closed {
		return ErrClosed
	}
	if f.phase == AwaitingOTP && f.cooldown > 0 {
		return &apperr.Error{
			Kind: apperr.KindValidation,
			Op:   op,
			Msg:  fmt.Sprintf("Please wait %ds before requesting a new OTP", f.cooldown),
			Err:  ErrCooldown,
		}
	}
	return nil
}

func (f *Flow) request(ctx context.Context, op, mobile string) error {
	epoch, err := f.begin(op)
	if err != nil {
		return err
	}
	defer f.end()

	f.log.Debug("requesting otp", zap.String("op", op), zap.String("mobile", MaskMobile(mobile)))
	if err := f.svc.GenerateOTP(ctx, mobile); err != nil {
		f.log.Warn("otp request failed", zap.String("op", op), zap.Error(err))
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.epoch != epoch {
		return ErrSuperseded
	}
	f.phase = AwaitingOTP
	f.mobile = mobile
	f.cooldown = CooldownSeconds
	f.startCountdownLocked()
	return nil
}

// VerifyOTP validates otp for the stored number and returns the session
// token. On success the flow is finished. On failure it stays in
// AwaitingOTP and keeps the entered OTP.
func (f *Flow) VerifyOTP(ctx context.Context, otp string) (string, error) {
	const op = "auth.verify_otp"
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return "", ErrClosed
	}
	if f.phase != AwaitingOTP {
		f.mu.Unlock()
		return "", apperr.Validation(op, "no OTP has been requested yet")
	}
	f.otp = otp
	mobile := f.mobile
	f.mu.Unlock()

	if len(otp) < MinOTPLength {
		return "", apperr.Validation(op, "Please enter a valid OTP (at least %d digits)", MinOTPLength)
	}

	epoch, err := f.begin(op)
	if err != nil {
		return "", err
	}
	defer f.end()

	token, err := f.svc.ValidateOTP(ctx, mobile, otp)
	if err != nil {
		f.log.Warn("otp validation failed", zap.Error(err))
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.epoch != epoch {
		return "", ErrSuperseded
	}
	f.closed = true
	f.stopCountdownLocked()
	f.log.Debug("login complete", zap.String("mobile", MaskMobile(mobile)))
	return token, nil
}

// ChangeNumber returns to EnteringMobile, clearing the OTP and cooldown.
// Any pending response is dropped.
func (f *Flow) ChangeNumber() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.phase != AwaitingOTP {
		return
	}
	f.phase = EnteringMobile
	f.otp = ""
	f.cooldown = 0
	f.epoch++
	f.stopCountdownLocked()
}

// Close tears the flow down. The countdown never fires afterwards.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.epoch++
	f.stopCountdownLocked()
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		Phase:    f.phase,
		Mobile:   f.mobile,
		OTP:      f.otp,
		Cooldown: f.cooldown,
		Pending:  f.pending,
		Done:     f.closed,
	}
}

// Cooldown returns the seconds left before a resend is allowed.
func (f *Flow) Cooldown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooldown
}

func (f *Flow) begin(op string) (uint64, error) {
	if !f.sem.TryAcquire(1) {
		return 0, apperr.Busy(op)
	}
	f.mu.Lock()
	f.pending = true
	epoch := f.epoch
	f.mu.Unlock()
	return epoch, nil
}

func (f *Flow) end() {
	f.mu.Lock()
	f.pending = false
	f.mu.Unlock()
	f.sem.Release(1)
}

// startCountdownLocked replaces any running countdown with a new one that
// decrements cooldown once per second until zero.
func (f *Flow) startCountdownLocked() {
	f.stopCountdownLocked()
	gen := f.tickGen
	stop := make(chan struct{})
	f.tickStop = stop
	t := f.clock.NewTicker(time.Second)

	go func() {
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.Chan():
				f.mu.Lock()
				if f.tickGen != gen {
					f.mu.Unlock()
					return
				}
				if f.cooldown > 0 {
					f.cooldown--
				}
				done := f.cooldown == 0
				if done {
					f.stopCountdownLocked()
				}
				f.mu.Unlock()
				if done {
					return
				}
			}
		}
	}()
}

// stopCountdownLocked invalidates the running countdown. A tick that is
// already waiting on the lock sees the new generation and exits without
// touching state.
func (f *Flow) stopCountdownLocked() {
	f.tickGen++
	if f.tickStop != nil {
		close(f.tickStop)
		f.tickStop = nil
	}
}

// MaskMobile hides all but the last four digits.
func MaskMobile(m string) string {
	if len(m) <= 4 {
		return m
	}
	b := []byte(m)
	for i := 0; i < len(b)-4; i++ {
		b[i] = '*'
	}
	return string(b)
}
