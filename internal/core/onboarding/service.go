package onboarding

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnknownIntent is returned for intents the service cannot interpret.
var ErrUnknownIntent = errors.New("unknown intent")

// Service runs the onboarding protocol. It is the only writer of an
// applicant's state, and it handles one intent per applicant at a time.
type Service struct {
	repo      ports.ApplicantRepository
	evaluator *Evaluator
	bus       ports.EventBus
	metrics   ports.OnboardingMetrics
	locks     *keyedMutex
	now       func() time.Time
	log       zerolog.Logger
}

// NewService wires the onboarding service. bus and metrics may be nil.
func NewService(
	repo ports.ApplicantRepository,
	evaluator *Evaluator,
	bus ports.EventBus,
	metrics ports.OnboardingMetrics,
	baseLogger *zerolog.Logger,
) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Service{
		repo:      repo,
		evaluator: evaluator,
		bus:       bus,
		metrics:   metrics,
		locks:     newKeyedMutex(),
		now:       time.Now,
		log:       baseLogger.With().Str("component", "onboarding_service").Logger(),
	}
}

// session is the working copy of one applicant during one intent.
type session struct {
	applicant domain.Applicant
	patch     domain.ApplicantPatch
	prompt    Prompt
	created   bool
	completed bool
	restarted *domain.ApplicantState
}

// OnIntent processes one intent and returns what to show the applicant.
// A returned error means the repository failed; nothing was half-applied
// from the applicant's point of view and the front-end should ask them to
// retry later.
func (s *Service) OnIntent(ctx context.Context, in Intent) (Prompt, error) {
	unlock := s.locks.Lock(in.ApplicantID)
	defer unlock()

	log := s.log.With().Int64("applicant_id", in.ApplicantID).Str("intent", string(in.Kind)).Logger()
	s.metrics.IncIntent(string(in.Kind))

	current, err := s.repo.Get(ctx, in.ApplicantID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load applicant")
		return Prompt{}, fmt.Errorf("load applicant %d: %w", in.ApplicantID, err)
	}

	created := false
	if current == nil {
		switch in.Kind {
		case IntentStart, IntentRestart:
			if current, err = s.create(ctx, in); err != nil {
				log.Error().Err(err).Msg("Failed to create applicant")
				return Prompt{}, err
			}
			created = true
			log.Info().Msg("New applicant created")
		default:
			locale := in.Locale
			if locale == "" {
				locale = domain.DefaultLocale
			}
			return Prompt{Locale: locale, Replies: []Reply{{Kind: ReplyNotStarted}}}, nil
		}
	}

	sess := &session{applicant: *current, created: created}
	sess.prompt.Locale = current.Locale

	if err := s.dispatch(ctx, sess, in); err != nil {
		return Prompt{}, err
	}

	if !sess.patch.IsEmpty() {
		stored, err := s.repo.ApplyPatch(ctx, in.ApplicantID, sess.patch)
		if err != nil {
			log.Error().Err(err).Msg("Failed to persist applicant")
			return Prompt{}, fmt.Errorf("persist applicant %d: %w", in.ApplicantID, err)
		}
		sess.applicant = *stored
	}
	if err := sess.applicant.CheckInvariants(); err != nil {
		log.Error().Err(err).Str("state", string(sess.applicant.State)).Msg("Applicant invariant violated")
	}

	if current.State != sess.applicant.State {
		s.metrics.IncTransition(current.State, sess.applicant.State)
		log.Info().
			Str("from", string(current.State)).
			Str("to", string(sess.applicant.State)).
			Msg("Applicant state changed")
	}
	s.publish(ctx, sess)

	sess.prompt.Locale = sess.applicant.Locale
	return sess.prompt, nil
}

func (s *Service) create(ctx context.Context, in Intent) (*domain.Applicant, error) {
	handle := in.Handle
	if handle == "" {
		handle = fmt.Sprintf("user_%d", in.ApplicantID)
	}
	locale := in.Locale
	if _, ok := domain.ParseLocale(string(locale)); !ok {
		locale = domain.DefaultLocale
	}
	a, err := s.repo.Create(ctx, in.ApplicantID, handle, locale)
	if err != nil {
		return nil, fmt.Errorf("create applicant %d: %w", in.ApplicantID, err)
	}
	return a, nil
}

func (s *Service) dispatch(ctx context.Context, sess *session, in Intent) error {
	switch in.Kind {
	case IntentStart, IntentRestart:
		s.restart(sess, in)
	case IntentSetLanguage:
		s.setLanguage(sess, in.Language)
	case IntentText:
		s.step(ctx, sess, Event{Kind: EventText, Text: in.Text})
	case IntentButton:
		switch in.Button {
		case ButtonHandleInstalled:
			s.checkHandle(sess, in.Handle)
		case ButtonAgree:
			s.step(ctx, sess, Event{Kind: EventAgree})
		case ButtonDisagree:
			s.step(ctx, sess, Event{Kind: EventDisagree})
		case ButtonRepeatCheck:
			s.step(ctx, sess, Event{Kind: EventRecheck})
		case ButtonAddressHelp:
			s.step(ctx, sess, Event{Kind: EventAddressHelp})
		case ButtonRestart:
			s.restart(sess, in)
		default:
			return fmt.Errorf("%w: button %q", ErrUnknownIntent, in.Button)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}
	return nil
}

// restart resets the attempt and re-enters the handle step.
func (s *Service) restart(sess *session, in Intent) {
	if !sess.created {
		from := sess.applicant.State
		sess.restarted = &from
	}
	s.apply(sess, Transition(sess.applicant.Snapshot(), Event{Kind: EventRestart}))
	s.checkHandle(sess, in.Handle)
}

func (s *Service) checkHandle(sess *session, handle string) {
	before := sess.applicant.State
	s.apply(sess, Transition(sess.applicant.Snapshot(), Event{Kind: EventHandleCheck, HandleVisible: handle != ""}))
	if handle != "" && before == domain.StateCheckingHandle && handle != sess.applicant.Handle {
		s.apply(sess, Outcome{Next: sess.applicant.State, Patch: domain.ApplicantPatch{Handle: &handle}})
	}
}

func (s *Service) setLanguage(sess *session, code string) {
	locale, ok := domain.ParseLocale(code)
	if !ok {
		sess.prompt.Replies = append(sess.prompt.Replies, Reply{Kind: ReplyLanguageMenu})
		return
	}
	s.apply(sess, Outcome{Next: sess.applicant.State, Patch: domain.ApplicantPatch{Locale: &locale}})
	sess.prompt.Replies = append(sess.prompt.Replies, Reply{Kind: ReplyLanguageChanged})
}

// step runs one machine event, doing the ledger lookup first when needed.
func (s *Service) step(ctx context.Context, sess *session, ev Event) {
	snap := sess.applicant.Snapshot()
	if addr, ok := LookupFor(snap, ev); ok {
		info := s.evaluate(ctx, addr)
		ev.Info = &info
	}
	s.apply(sess, Transition(snap, ev))
}

func (s *Service) evaluate(ctx context.Context, addr string) domain.AccountInfo {
	start := s.now()
	info := s.evaluator.Evaluate(ctx, addr)
	var err error
	if info.Err != "" {
		err = errors.New(info.Err)
	}
	s.metrics.ObserveLedgerCall("evaluate", s.now().Sub(start), err)
	return info
}

func (s *Service) apply(sess *session, out Outcome) {
	sess.applicant = out.Patch.Apply(sess.applicant, s.now())
	sess.patch = sess.patch.Merge(out.Patch)
	sess.prompt.Replies = append(sess.prompt.Replies, out.Replies...)
	if out.Completed {
		sess.completed = true
	}
}

func (s *Service) publish(ctx context.Context, sess *session) {
	a := sess.applicant
	if sess.completed {
		s.metrics.IncCompleted()
	}
	if s.bus == nil {
		return
	}
	if sess.completed {
		ev := ports.ApplicantCompletedEvent{
			ApplicantID:   a.ID,
			Handle:        a.Handle,
			LedgerAddress: a.Address(),
			CompletedAt:   a.LastActivityAt,
		}
		if a.RecommenderHandle != nil {
			ev.Recommender = *a.RecommenderHandle
		}
		if err := s.bus.Publish(ctx, ports.TopicApplicantCompleted, ev); err != nil {
			s.log.Error().Err(err).Int64("applicant_id", a.ID).Msg("Failed to publish completion")
		}
	}
	if sess.restarted != nil {
		ev := ports.ApplicantRestartedEvent{ApplicantID: a.ID, FromState: string(*sess.restarted)}
		if err := s.bus.Publish(ctx, ports.TopicApplicantRestarted, ev); err != nil {
			s.log.Error().Err(err).Int64("applicant_id", a.ID).Msg("Failed to publish restart")
		}
	}
}

// Lookup returns the stored applicant, or nil when it was never created.
// It waits for any intent of that applicant that is in flight.
func (s *Service) Lookup(ctx context.Context, id int64) (*domain.Applicant, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.repo.Get(ctx, id)
}

// Delete removes an applicant entirely. It waits for any intent of that
// applicant that is in flight.
func (s *Service) Delete(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete applicant %d: %w", id, err)
	}
	s.log.Info().Int64("applicant_id", id).Msg("Applicant deleted by operator")
	return nil
}
