package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/stagehand/command"
	"github.com/hupe1980/stagehand/logging"
	"github.com/hupe1980/stagehand/playback"
	"github.com/hupe1980/stagehand/presentation"
	"github.com/hupe1980/stagehand/question"
	"github.com/hupe1980/stagehand/respond"
	"github.com/hupe1980/stagehand/speech"
)

// Deck is the slide configuration surface the engine needs on top of what the
// state machine already consumes. Implemented by config.Deck.
type Deck interface {
	presentation.Deck

	// FallbackResponse returns the canned response for a slide's interaction,
	// empty when none is configured.
	FallbackResponse(slide int) string
}

// Roster resolves audience members. Implemented by config.Roster.
type Roster interface {
	// Role returns the member's role, or a generic default.
	Role(name string) string

	// Question returns the member's configured question, empty when none.
	Question(name string) string
}

// noRoster is the default when no audience configuration is loaded.
type noRoster struct{}

func (noRoster) Role(string) string     { return "team member" }
func (noRoster) Question(string) string { return "" }

// Result statuses beyond the queue's own vocabulary.
const (
	StatusDeferred = "deferred"
	StatusNoted    = "noted"
	StatusRejected = "rejected"
	StatusError    = "error"
	StatusStatus   = "status"
	StatusOK       = "ok"
)

// Result is the engine's reply to one submitted command.
type Result struct {
	Status        string             `json:"status"`
	Command       command.Kind       `json:"command,omitempty"`
	State         presentation.State `json:"state"`
	Slide         int                `json:"slide"`
	QueuePosition int                `json:"queue_position,omitempty"`
	QueueSize     int                `json:"queue_size"`
	Message       string             `json:"message,omitempty"`
}

// StatusReport is the full engine view for the control surface.
type StatusReport struct {
	Snapshot      presentation.Snapshot `json:"snapshot"`
	Queue         command.Status        `json:"queue"`
	Deferred      command.Kind          `json:"deferred_command,omitempty"`
	PlaybackToken string                `json:"playback_token,omitempty"`
	Questions     question.Counts       `json:"questions"`
}

// Options configure the engine.
type Options struct {
	// Generator produces spoken responses; nil falls back to canned text.
	Generator respond.Generator

	// Synthesizer voices live responses; nil or unconfigured degrades to
	// on-screen text.
	Synthesizer speech.Synthesizer

	// Questions is the audience question queue; a fresh in-memory manager is
	// created when nil.
	Questions *question.Manager

	// Roster resolves audience member roles and configured questions.
	Roster Roster

	// Sink receives broadcasts; defaults to a no-op until SetSink.
	Sink Sink

	Logger logging.Logger

	// GenerationTimeout bounds one model call.
	GenerationTimeout time.Duration
}

// Engine owns the presentation snapshot and serializes everything that can
// change it: operator commands, playback completion reports and the response
// pipeline. One engine drives one presentation session.
type Engine struct {
	deck    Deck
	machine *presentation.Machine
	queue   *command.Queue
	tokens  *playback.Registry

	generator  respond.Generator
	synth      speech.Synthesizer
	questions  *question.Manager
	roster     Roster
	logger     logging.Logger
	genTimeout time.Duration

	// opMu serializes SubmitText and ReportAudioComplete end to end so no two
	// state machine evaluations are ever in flight.
	opMu sync.Mutex

	// stateMu guards the fields below for Status reads that must not block
	// behind a long generation call.
	stateMu  sync.RWMutex
	snap     presentation.Snapshot
	deferred *command.Command
	sink     Sink

	// dispatchCtx carries the caller's context into the queue handler. Safe
	// because opMu serializes every enqueue with its dispatch.
	dispatchCtx context.Context
}

// New creates an engine for the given deck.
func New(deck Deck, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Roster:            noRoster{},
		Sink:              noopSink{},
		Logger:            logging.NoOpLogger{},
		GenerationTimeout: 60 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Questions == nil {
		opts.Questions = question.NewManager(func(o *question.ManagerOptions) { o.Logger = opts.Logger })
	}
	if opts.Roster == nil {
		opts.Roster = noRoster{}
	}
	if opts.Sink == nil {
		opts.Sink = noopSink{}
	}

	e := &Engine{
		deck:       deck,
		machine:    presentation.NewMachine(deck, func(o *presentation.MachineOptions) { o.Logger = opts.Logger }),
		queue:      command.NewQueue(),
		tokens:     playback.NewRegistry(),
		generator:  opts.Generator,
		synth:      opts.Synthesizer,
		questions:  opts.Questions,
		roster:     opts.Roster,
		logger:     opts.Logger,
		genTimeout: opts.GenerationTimeout,
		snap:       presentation.NewSnapshot(deck.TotalSlides()),
		sink:       opts.Sink,
	}
	e.queue.SetHandlers(e.dispatchCommand, e.handleInterrupt)
	return e
}

// SetSink attaches the broadcast transport. Called once the server is up;
// everything before that is dropped.
func (e *Engine) SetSink(s Sink) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if s == nil {
		s = noopSink{}
	}
	e.sink = s
}

// Questions exposes the question manager for the HTTP surface.
func (e *Engine) Questions() *question.Manager { return e.questions }

// SubmitText parses and dispatches one line of operator input. Commands that
// advance slides while audio is still playing land in the single deferred
// slot instead of the queue; answers are only honored while one is expected.
func (e *Engine) SubmitText(ctx context.Context, text string) Result {
	started := time.Now()
	cmd := command.Parse(text)

	switch cmd.Kind {
	case command.KindStatus:
		report := e.Status()
		return Result{
			Status:    StatusStatus,
			Command:   cmd.Kind,
			State:     report.Snapshot.State,
			Slide:     report.Snapshot.CurrentSlide,
			QueueSize: report.Queue.QueueSize,
			Message:   fmt.Sprintf("state=%s slide=%d questions=%d", report.Snapshot.State, report.Snapshot.CurrentSlide, report.Questions.Total),
		}
	case command.KindUnknown, command.KindError:
		snap := e.snapshot()
		e.control(ControlMessage{Type: ControlError, State: snap.State, Slide: snap.CurrentSlide, Message: cmd.Reason})
		return Result{Status: StatusError, Command: cmd.Kind, State: snap.State, Slide: snap.CurrentSlide, Message: cmd.Reason}
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	snap := e.snapshot()
	if snap.State.Terminal() {
		return Result{Status: StatusRejected, Command: cmd.Kind, State: snap.State, Slide: snap.CurrentSlide, Message: "presentation has ended"}
	}

	if cmd.Kind == command.KindAnswer {
		res := e.handleAnswer(ctx, cmd)
		e.logger.Debug("Command handled", "kind", cmd.Kind, "status", res.Status, "duration", time.Since(started))
		return res
	}

	if !cmd.IsInterrupt() && cmd.AdvancesSlides() && snap.AudioPlaying {
		return e.deferCommand(cmd)
	}

	e.dispatchCtx = ctx
	qres := e.queue.Enqueue(cmd)
	e.dispatchCtx = nil

	snap = e.snapshot()
	res := Result{
		Status:        qres.Status,
		Command:       cmd.Kind,
		State:         snap.State,
		Slide:         snap.CurrentSlide,
		QueuePosition: qres.QueuePosition,
		QueueSize:     qres.QueueSize,
		Message:       qres.Message,
	}
	if res.Status == StatusError {
		e.control(ControlMessage{Type: ControlError, State: res.State, Slide: res.Slide, Message: res.Message})
	}
	e.logger.Debug("Command handled", "kind", cmd.Kind, "status", res.Status, "duration", time.Since(started))
	return res
}

// ReportAudioComplete handles a playback completion report from the display.
// Stale and duplicated tokens are dropped; a valid report drives the audio
// completion transition and then releases whatever is waiting, deferred slot
// first, queue backlog second.
func (e *Engine) ReportAudioComplete(token string) bool {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if !e.tokens.Validate(token) {
		e.logger.Debug("Stale playback report dropped", "token", token, "live", e.tokens.Live())
		return false
	}
	e.tokens.Clear()

	e.completePlayback(context.Background())

	// Capture busy before the deferred command re-enters the queue: when the
	// queue was idle the enqueue dispatches directly and a trailing
	// ActionComplete would double-dispatch.
	wasBusy := e.queue.Status().Busy

	e.stateMu.Lock()
	deferred := e.deferred
	e.deferred = nil
	e.stateMu.Unlock()

	if deferred != nil {
		e.logger.Info("Dispatching deferred command", "kind", deferred.Kind)
		e.dispatchCtx = context.Background()
		e.queue.Enqueue(*deferred)
		e.dispatchCtx = nil
	}
	if wasBusy {
		e.queue.ActionComplete()
	}
	return true
}

// ReportSlide logs a slide change made directly on the display. The report
// is informational; operator commands remain the source of truth and the
// snapshot is never touched.
func (e *Engine) ReportSlide(index int) {
	snap := e.snapshot()
	e.logger.Info("Display reported slide change", "reported", index, "current", snap.CurrentSlide)
	e.control(ControlMessage{Type: ControlStatusUpdate, State: snap.State, Slide: snap.CurrentSlide, Message: fmt.Sprintf("Display reported slide %d", index)})
}

// Status returns the full engine view. Never blocks behind generation.
func (e *Engine) Status() StatusReport {
	e.stateMu.RLock()
	snap := e.snap
	var deferred command.Kind
	if e.deferred != nil {
		deferred = e.deferred.Kind
	}
	e.stateMu.RUnlock()

	return StatusReport{
		Snapshot:      snap,
		Queue:         e.queue.Status(),
		Deferred:      deferred,
		PlaybackToken: e.tokens.Live(),
		Questions:     e.questions.Counts(),
	}
}

// SubmitQuestion records an audience question and scores it asynchronously.
func (e *Engine) SubmitQuestion(ctx context.Context, name, text string) (question.Question, error) {
	q, err := e.questions.Submit(ctx, name, text)
	if err != nil {
		return question.Question{}, err
	}
	e.control(ControlMessage{Type: ControlNewQuestion, Question: &q})

	go e.filterQuestion(context.Background(), q)
	return q, nil
}

// deferCommand replaces the single deferred slot; only the latest
// slide-advancing command survives a narration.
func (e *Engine) deferCommand(cmd command.Command) Result {
	e.stateMu.Lock()
	var replaced command.Kind
	if e.deferred != nil {
		replaced = e.deferred.Kind
	}
	e.deferred = &cmd
	snap := e.snap
	e.stateMu.Unlock()

	msg := fmt.Sprintf("%s deferred until audio completes", cmd.Kind)
	if replaced != "" {
		msg = fmt.Sprintf("%s deferred until audio completes, replacing %s", cmd.Kind, replaced)
	}
	e.logger.Info("Command deferred", "kind", cmd.Kind, "replaced", replaced)
	return Result{Status: StatusDeferred, Command: cmd.Kind, State: snap.State, Slide: snap.CurrentSlide, Message: msg}
}

// dispatchCommand is the queue's command handler. It applies the transition,
// broadcasts the effects and completes the action synchronously whenever no
// audio is left playing at the end.
func (e *Engine) dispatchCommand(cmd command.Command) command.Result {
	ctx := e.dispatchCtx
	if ctx == nil {
		ctx = context.Background()
	}

	res := e.runCommand(ctx, cmd)

	if !e.snapshot().AudioPlaying {
		e.queue.ActionComplete()
	}
	return res
}

func (e *Engine) runCommand(ctx context.Context, cmd command.Command) command.Result {
	switch cmd.Kind {
	case command.KindAsk:
		resolved, err := e.resolveAsk(cmd)
		if err != nil {
			e.logger.Warn("Ask not dispatched", "target", cmd.TargetName, "error", err)
			return command.Result{Status: StatusError, Command: cmd.Kind, Message: err.Error()}
		}
		cmd = resolved
	case command.KindPick:
		return e.runPick(ctx, cmd)
	}

	snap, _ := e.applyCommand(cmd)

	switch cmd.Kind {
	case command.KindAsk:
		e.stateMu.Lock()
		e.snap.CurrentTargetRole = e.roster.Role(cmd.TargetName)
		e.stateMu.Unlock()

		// No pre-rendered question audio means nothing to wait for; move
		// straight to listening.
		if !snap.AudioPlaying {
			e.completePlayback(ctx)
		}
	case command.KindSkip:
		e.cancelAll()
	case command.KindExample:
		e.respondToAnswer(ctx)
	}

	return command.Result{Status: command.StatusProcessing, Command: cmd.Kind}
}

// runPick selects an audience question and speaks its answer.
func (e *Engine) runPick(ctx context.Context, cmd command.Command) command.Result {
	q, ok := e.questions.Pick(ctx, cmd.QuestionID)
	if !ok {
		e.logger.Warn("Question not pickable", "id", cmd.QuestionID)
		return command.Result{Status: StatusError, Command: cmd.Kind, Message: fmt.Sprintf("question #%d not found or already answered", cmd.QuestionID)}
	}

	_, _ = e.applyCommand(cmd)

	e.stateMu.Lock()
	e.snap.State = presentation.StateResponding
	e.snap.CurrentQuestion = q.Question
	e.stateMu.Unlock()

	e.broadcast([]presentation.Effect{
		presentation.ShowQuestion{TargetName: q.DisplayName(), Question: q.Question},
		presentation.ShowAvatar{Mode: presentation.AvatarThinking},
	})

	text := e.generateQAAnswer(ctx, q.Question)
	e.speak(ctx, q.DisplayName(), text)
	return command.Result{Status: command.StatusProcessing, Command: cmd.Kind}
}

// handleAnswer runs the audience answer pipeline, bypassing the queue. The
// answer is only honored while one is expected; anything else is noted so a
// mistyped slash command never derails the presentation.
func (e *Engine) handleAnswer(ctx context.Context, cmd command.Command) Result {
	snap := e.snapshot()
	if snap.State != presentation.StateAsking && snap.State != presentation.StateWaitingAnswer {
		e.logger.Debug("Answer noted outside interaction", "state", snap.State)
		return Result{Status: StatusNoted, Command: cmd.Kind, State: snap.State, Slide: snap.CurrentSlide, Message: "no answer expected right now, noted"}
	}

	e.applyCommand(cmd)
	e.respondToAnswer(ctx)

	snap = e.snapshot()
	return Result{Status: StatusOK, Command: cmd.Kind, State: snap.State, Slide: snap.CurrentSlide, Message: "response generated"}
}

// respondToAnswer generates and speaks the reaction to the current audience
// answer (or the example sentinel).
func (e *Engine) respondToAnswer(ctx context.Context) {
	snap := e.snapshot()
	text := e.generateAudienceResponse(ctx, snap)
	e.speak(ctx, snap.CurrentTarget, text)

	e.control(ControlMessage{Type: ControlResponseGenerated, State: e.snapshot().State, Slide: snap.CurrentSlide, Target: snap.CurrentTarget, Response: text})
}

// handleInterrupt is the queue's interrupt handler; pause and stop land here
// without touching the backlog.
func (e *Engine) handleInterrupt(cmd command.Command) command.Result {
	e.logger.Info("Interrupt", "kind", cmd.Kind)

	_, _ = e.applyCommand(cmd)
	e.tokens.Clear()

	// The halted command's audio will never complete; its queue slot must
	// not stay busy forever. Only stop drops the deferred register and the
	// backlog; pause preserves both.
	if cmd.Kind == command.KindStop {
		e.stateMu.Lock()
		e.deferred = nil
		e.stateMu.Unlock()
		e.queue.Clear()
	} else {
		e.queue.Halt()
	}
	return command.Result{Status: command.StatusInterrupt, Command: cmd.Kind}
}

/// cancelAll drops every pending action: the live token, the deferred slot and
// the queue backlog.
func (e *Engine) cancelAll() {
	e.tokens.Clear()
	e.queue.Clear()
	e.stateMu.Lock()
	e.deferred = nil
	e.stateMu.Unlock()
}

// applyCommand evaluates one transition inside the state critical section,
// stamps playback tokens on audio effects and broadcasts the result.
func (e *Engine) applyCommand(cmd command.Command) (presentation.Snapshot, []presentation.Effect) {
	e.stateMu.Lock()
	snap, effects := e.machine.Apply(e.snap, cmd)
	effects = e.stampTokens(effects)
	e.snap = snap
	e.stateMu.Unlock()

	e.broadcast(effects)
	return snap, effects
}

// completePlayback drives the synthetic audio-completion transition. When a
// Q&A answer just finished speaking, the question is marked answered first.
func (e *Engine) completePlayback(ctx context.Context) {
	e.stateMu.Lock()
	var qaID int
	var answer string
	if e.snap.State == presentation.StateResponding && e.snap.QaQuestionID != 0 {
		qaID = e.snap.QaQuestionID
		answer = e.snap.LastResponse
	}
	snap, effects := e.machine.CompleteAudio(e.snap)
	e.snap = snap
	e.stateMu.Unlock()

	if qaID != 0 {
		e.questions.MarkAnswered(ctx, qaID, answer)
	}
	e.broadcast(effects)
}

// resolveAsk fills an empty question from the slide interaction, then from
// the roster.
func (e *Engine) resolveAsk(cmd command.Command) (command.Command, error) {
	if cmd.Question != "" {
		return cmd, nil
	}
	snap := e.snapshot()
	if target, q, ok := e.deck.Interaction(snap.CurrentSlide); ok && strings.EqualFold(target, cmd.TargetName) {
		cmd.Question = q
		return cmd, nil
	}
	if q := e.roster.Question(cmd.TargetName); q != "" {
		cmd.Question = q
		return cmd, nil
	}
	return cmd, fmt.Errorf("no question configured for %s on slide %d", cmd.TargetName, snap.CurrentSlide)
}

// generateAudienceResponse calls the model, falling back to the slide's
// canned response and then to a generic acknowledgment. The presentation
// never stalls on a failed model call.
func (e *Engine) generateAudienceResponse(ctx context.Context, snap presentation.Snapshot) string {
	if e.generator != nil {
		genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
		defer cancel()

		started := time.Now()
		text, err := e.generator.AudienceResponse(genCtx, snap.CurrentTarget, snap.CurrentTargetRole, snap.CurrentQuestion, snap.LastAnswerSummary)
		if err == nil && text != "" {
			e.logger.Info("Response generated", "target", snap.CurrentTarget, "duration", time.Since(started))
			return text
		}
		e.logger.Error("Response generation failed", "target", snap.CurrentTarget, "error", err)
	}
	if fallback := e.deck.FallbackResponse(snap.CurrentSlide); fallback != "" {
		return fallback
	}
	return respond.FallbackAudienceResponse(snap.CurrentTarget)
}

// generateQAAnswer calls the model for an open Q&A answer with a fixed
// fallback on failure.
func (e *Engine) generateQAAnswer(ctx context.Context, questionText string) string {
	if e.generator == nil {
		return respond.FallbackQAAnswer
	}
	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	started := time.Now()
	text, err := e.generator.QAAnswer(genCtx, questionText)
	if err != nil || text == "" {
		e.logger.Error("Q&A answer generation failed", "error", err)
		return respond.FallbackQAAnswer
	}
	e.logger.Info("Q&A answer generated", "duration", time.Since(started))
	return text
}

// speak voices the response text as live audio, or shows it as text when
// synthesis is unavailable. The text path completes the transition
// immediately since there is no playback to wait for.
func (e *Engine) speak(ctx context.Context, target, text string) {
	e.stateMu.Lock()
	e.snap.LastResponse = text
	e.stateMu.Unlock()

	if e.synth != nil && e.synth.Configured() {
		audio, err := e.synth.Synthesize(ctx, text)
		if err == nil {
			e.stateMu.Lock()
			e.snap.AudioPlaying = true
			e.snap.AudioKind = presentation.AudioLive
			effects := e.stampTokens([]presentation.Effect{
				presentation.ShowAvatar{Mode: presentation.AvatarSpeaking},
				presentation.PlayLiveAudio{Audio: audio, ResponseText: text},
			})
			e.stateMu.Unlock()

			e.broadcast(effects)
			return
		}
		e.logger.Error("Speech synthesis failed, showing text", "error", err)
	}

	e.broadcast([]presentation.Effect{presentation.ShowResponseText{Target: target, Text: text}})
	e.completePlayback(ctx)
}

// filterQuestion scores a submitted question in the background and pushes the
// updated status to the control surface.
func (e *Engine) filterQuestion(ctx context.Context, q question.Question) {
	result := respond.NeutralFilterResult
	if e.generator != nil {
		genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
		defer cancel()

		r, err := e.generator.FilterQuestion(genCtx, q.Question)
		if err != nil {
			e.logger.Warn("Question filter failed", "id", q.ID, "error", err)
		} else {
			result = r
		}
	}

	filtered, ok := e.questions.ApplyFilter(ctx, q.ID, result.Score, result.Flag, result.Reason)
	if !ok {
		return
	}
	e.control(ControlMessage{Type: ControlNewQuestion, Question: &filtered})
}

// stampTokens mints a playback token for every audio effect. Must be called
// inside the state critical section so the mint order matches the dispatch
// order.
func (e *Engine) stampTokens(effects []presentation.Effect) []presentation.Effect {
	for i, effect := range effects {
		switch a := effect.(type) {
		case presentation.PlayAudio:
			a.Token = e.tokens.Mint()
			effects[i] = a
		case presentation.PlayLiveAudio:
			a.Token = e.tokens.Mint()
			effects[i] = a
		}
	}
	return effects
}

func (e *Engine) snapshot() presentation.Snapshot {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.snap
}

// broadcast sends effects to the presenter and mirrors any status update to
// the control surface. Best effort; never fails the command.
func (e *Engine) broadcast(effects []presentation.Effect) {
	if len(effects) == 0 {
		return
	}
	e.stateMu.RLock()
	sink := e.sink
	e.stateMu.RUnlock()

	sink.BroadcastPresenter(effects...)
	for _, effect := range effects {
		if su, ok := effect.(presentation.StatusUpdate); ok {
			sink.BroadcastControl(ControlMessage{Type: ControlStatusUpdate, State: su.State, Slide: su.Slide, Message: su.Message})
		}
	}
}

func (e *Engine) control(msg ControlMessage) {
	e.stateMu.RLock()
	sink := e.sink
	e.stateMu.RUnlock()
	sink.BroadcastControl(msg)
}
