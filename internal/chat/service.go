// Package chat implements the conversational intake: it validates inbound
// messages, admits them through the queue, runs the analysis and delivers
// the report back through the messenger.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/davidbz/linguist/internal/admission"
	"github.com/davidbz/linguist/internal/config"
	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/observability"
	"github.com/davidbz/linguist/internal/report"
	"github.com/davidbz/linguist/internal/resources"
)

// ErrUnknownAction indicates a menu action the service does not handle.
var ErrUnknownAction = errors.New("unknown action")

// Disposition is what happened to an inbound message.
type Disposition string

// Dispositions returned by HandleMessage.
const (
	DispositionAccepted Disposition = "accepted"
	DispositionQueued   Disposition = "queued"
	DispositionBusy     Disposition = "busy"
	DispositionIgnored  Disposition = "ignored"
	DispositionRejected Disposition = "rejected"
	DispositionInvalid  Disposition = "invalid"
	DispositionReplied  Disposition = "replied"
)

// Report delivery results recorded in metrics.
const (
	resultDelivered    = "delivered"
	resultNothingFound = "nothing_found"
	resultAborted      = "aborted"
	resultFailed       = "failed"
)

// Event is one inbound chat message.
type Event struct {
	CallerID        string
	ConversationRef string
	Text            string
	Command         string
}

// ActionEvent is one menu button press.
type ActionEvent struct {
	CallerID        string
	ConversationRef string
	Action          string
}

// ConversationMarker is implemented by messengers that can flag a conversation as deleted.
type ConversationMarker interface {
	MarkGone(ctx context.Context, conversation string) error
}

// Service handles inbound chat events.
type Service struct {
	queue      *admission.Queue
	aggregator *domain.Aggregator
	messenger  domain.Messenger
	store      domain.ReportStore
	bundle     *resources.Bundle
	intake     *config.IntakeConfig
	metrics    *observability.Metrics
	wg         sync.WaitGroup

	mu     sync.Mutex
	active map[string]admitted
}

// admitted binds a caller's queue entry to the conversation it came from.
type admitted struct {
	conversation string
	ticket       *admission.Ticket
}

// NewService creates a new chat service (DI constructor).
func NewService(
	queue *admission.Queue,
	aggregator *domain.Aggregator,
	messenger domain.Messenger,
	store domain.ReportStore,
	bundle *resources.Bundle,
	intake *config.IntakeConfig,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		queue:      queue,
		aggregator: aggregator,
		messenger:  messenger,
		store:      store,
		bundle:     bundle,
		intake:     intake,
		metrics:    metrics,
		active:     make(map[string]admitted),
	}
}

// HandleMessage validates the event and, when admitted, starts the analysis in
// the background. It never blocks on the analysis itself.
func (s *Service) HandleMessage(ctx context.Context, ev Event) Disposition {
	ctx = observability.WithCallerID(ctx, ev.CallerID)
	ctx = observability.WithConversation(ctx, ev.ConversationRef)

	disposition := s.handleMessage(ctx, ev)
	s.metrics.IncSubmission(string(disposition))

	observability.FromContext(ctx).Info("message handled",
		observability.String("command", ev.Command),
		observability.String("disposition", string(disposition)))

	return disposition
}

func (s *Service) handleMessage(ctx context.Context, ev Event) Disposition {
	if ev.CallerID == "" || ev.ConversationRef == "" {
		return DispositionInvalid
	}

	text := strings.TrimSpace(ev.Text)
	length := utf8.RuneCountInString(text)

	switch ev.Command {
	case CommandStart:
		s.reply(ctx, ev.ConversationRef, greetingText)
		return DispositionReplied
	case CommandAnalyze:
		if text == "" {
			s.reply(ctx, ev.ConversationRef, usageMessage(s.intake.MaxLength))
			return DispositionReplied
		}
	case CommandNone:
		if length <= s.intake.MinPassiveLength {
			return DispositionIgnored
		}
	default:
		return DispositionInvalid
	}

	if length > s.intake.MaxLength {
		s.reply(ctx, ev.ConversationRef, tooLongMessage(s.intake.MaxLength))
		return DispositionRejected
	}

	if msg := s.bundle.RulePromptError(); msg != "" {
		s.reply(ctx, ev.ConversationRef, msg)
		return DispositionRejected
	}

	// The analysis outlives the inbound request; only Abandon cancels it.
	ticket, err := s.admit(context.WithoutCancel(ctx), ev.CallerID, ev.ConversationRef)
	switch {
	case errors.Is(err, admission.ErrBusy):
		return DispositionBusy
	case errors.Is(err, admission.ErrAlreadyQueued):
		s.reply(ctx, ev.ConversationRef, queuedText)
		return DispositionQueued
	case err != nil:
		observability.FromContext(ctx).Error("failed to enqueue", observability.Error(err))
		return DispositionInvalid
	}

	sub := domain.Submission{
		CallerID:        ev.CallerID,
		ConversationRef: ev.ConversationRef,
		Text:            text,
		CreatedAt:       time.Now(),
	}

	s.wg.Add(1)
	go s.run(ticket, sub)

	return DispositionAccepted
}

func (s *Service) release(callerID string, ticket *admission.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[callerID].ticket == ticket {
		delete(s.active, callerID)
	}
}

// admit enqueues the caller and binds the entry to its conversation.
func (s *Service) admit(ctx context.Context, callerID, conversation string) (*admission.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.queue.Enqueue(ctx, callerID)
	if err != nil {
		return nil, err
	}
	s.active[callerID] = admitted{conversation: conversation, ticket: ticket}
	return ticket, nil
}

// abandonIn abandons the caller's entry only if it belongs to conversation.
func (s *Service) abandonIn(callerID, conversation string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.active[callerID]; !ok || entry.conversation != conversation {
		return false
	}
	return s.queue.Abandon(callerID)
}

// Wait blocks until every started analysis has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) run(ticket *admission.Ticket, sub domain.Submission) {
	defer s.wg.Done()
	defer ticket.Done()
	defer s.release(sub.CallerID, ticket)

	ctx := ticket.Context()
	logger := observability.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("analysis panicked", observability.String("panic", fmt.Sprint(r)))
			s.metrics.IncReport(resultFailed)
		}
	}()

	if err := ticket.Wait(); err != nil {
		logger.Info("submission left the queue before running", observability.Error(err))
		s.metrics.IncReport(resultAborted)
		return
	}

	logger.Info("analysis started",
		observability.Duration("queued_for", time.Since(ticket.EnqueuedAt())))

	s.metrics.IncReport(s.analyze(ctx, sub))
}

func (s *Service) analyze(ctx context.Context, sub domain.Submission) string {
	logger := observability.FromContext(ctx)
	conversation := sub.ConversationRef

	progress, err := s.startProgress(ctx, conversation)
	if err != nil {
		logger.Info("conversation gone before analysis", observability.Error(err))
		return resultAborted
	}

	rep, err := s.aggregator.Analyze(ctx, sub, progress)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConversationGone), ctx.Err() != nil:
		logger.Info("analysis aborted", observability.Error(err))
		return resultAborted
	default:
		logger.Error("analysis failed", observability.Error(err))
		s.reply(ctx, conversation, domain.ResourceError(err))
		return resultFailed
	}

	if rep.NothingFound {
		s.reply(ctx, conversation, rep.Narrative)
		return resultNothingFound
	}

	ctx = observability.WithReportID(ctx, rep.ID)
	defer func() {
		if err := s.store.Remove(context.WithoutCancel(ctx), rep.ArtifactPath); err != nil {
			logger.Warn("failed to remove report artifact", observability.Error(err))
		}
	}()

	for _, chunk := range domain.ChunkText(rep.Narrative, s.intake.ChunkSize) {
		if err := s.messenger.SendText(ctx, conversation, chunk); err != nil {
			logger.Warn("failed to deliver report", observability.Error(err))
			return resultAborted
		}
	}

	if err := s.messenger.SendMenu(ctx, conversation, menuText, Menu()); err != nil {
		logger.Warn("failed to deliver menu", observability.Error(err))
	}

	err = s.messenger.SendDocument(ctx, conversation, domain.Attachment{
		Path:    rep.ArtifactPath,
		Name:    report.FileName(rep.ID),
		Caption: reportCaption,
	})
	if err != nil {
		logger.Warn("failed to deliver report document", observability.Error(err))
	}

	logger.Info("report delivered",
		observability.Int("findings", len(rep.Findings)),
		observability.Int("narrative_runes", utf8.RuneCountInString(rep.Narrative)))

	return resultDelivered
}

// HandleAction answers a menu button press.
func (s *Service) HandleAction(ctx context.Context, ev ActionEvent) error {
	ctx = observability.WithCallerID(ctx, ev.CallerID)
	ctx = observability.WithConversation(ctx, ev.ConversationRef)

	observability.FromContext(ctx).Info("menu action", observability.String("action", ev.Action))

	switch ev.Action {
	case ActionPayFine:
		return s.sendFileOr(ctx, ev.ConversationRef, s.messenger.SendImage,
			domain.Attachment{Path: s.bundle.QRCodePath, Name: resources.QRCodeFile, Caption: qrCaption},
			qrMissingText)
	case ActionGetBlank:
		return s.sendFileOr(ctx, ev.ConversationRef, s.messenger.SendDocument,
			domain.Attachment{Path: s.bundle.BlankPath, Name: blankName, Caption: blankCaption},
			blankMissing)
	case ActionRepent:
		return s.messenger.SendText(ctx, ev.ConversationRef, repentText)
	case ActionStatus:
		return s.messenger.SendText(ctx, ev.ConversationRef, statusText)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, ev.Action)
	}
}

// HandleConversationDeleted stops delivery to the conversation. The caller's entry
// is abandoned only when it was submitted from that conversation.
func (s *Service) HandleConversationDeleted(ctx context.Context, callerID, conversation string) error {
	ctx = observability.WithCallerID(ctx, callerID)
	ctx = observability.WithConversation(ctx, conversation)

	if marker, ok := s.messenger.(ConversationMarker); ok {
		if err := marker.MarkGone(ctx, conversation); err != nil {
			return fmt.Errorf("failed to mark conversation gone: %w", err)
		}
	}

	abandoned := false
	if callerID != "" {
		abandoned = s.abandonIn(callerID, conversation)
	}

	observability.FromContext(ctx).Info("conversation deleted",
		observability.Bool("abandoned", abandoned))
	return nil
}

func (s *Service) sendFileOr(
	ctx context.Context,
	conversation string,
	send func(context.Context, string, domain.Attachment) error,
	file domain.Attachment,
	fallback string,
) error {
	if _, err := os.Stat(file.Path); err != nil {
		return s.messenger.SendText(ctx, conversation, fallback)
	}
	return send(ctx, conversation, file)
}

func (s *Service) reply(ctx context.Context, conversation, text string) {
	if err := s.messenger.SendText(ctx, conversation, text); err != nil {
		observability.FromContext(ctx).Warn("failed to send reply", observability.Error(err))
	}
}

func (s *Service) startProgress(ctx context.Context, conversation string) (*progressReporter, error) {
	ref, err := s.messenger.SendProgress(ctx, conversation, progressStart+domain.ProgressBar(0, 1))
	if errors.Is(err, domain.ErrConversationGone) {
		return nil, err
	}
	if err != nil {
		observability.FromContext(ctx).Warn("failed to send progress message", observability.Error(err))
	}

	return &progressReporter{
		messenger:    s.messenger,
		conversation: conversation,
		ref:          ref,
		delay:        s.intake.ProgressDelay,
	}, nil
}

// progressReporter edits a single progress message in place.
type progressReporter struct {
	messenger    domain.Messenger
	conversation string
	ref          string
	delay        time.Duration
}

func (p *progressReporter) Update(ctx context.Context, done, total int) error {
	return p.edit(ctx, progressRunning+domain.ProgressBar(done, total))
}

func (p *progressReporter) Finish(ctx context.Context) error {
	if err := p.edit(ctx, progressDone+domain.ProgressBar(1, 1)); err != nil {
		return err
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return p.edit(ctx, awaitingText)
}

func (p *progressReporter) edit(ctx context.Context, text string) error {
	if p.ref == "" {
		return nil
	}
	return p.messenger.EditProgress(ctx, p.conversation, p.ref, text)
}
