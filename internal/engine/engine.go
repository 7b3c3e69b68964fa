package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
	"docqa/internal/prompt"
)

// Engine answers questions grounded in retrieved document chunks, either as
// one blocking call or as a token stream. The loaded model is an exclusive
// resource: a capacity-1 slot serializes all generation, and a second
// concurrent query waits (context-aware) for the slot instead of sharing the
// model.
type Engine struct {
	index     domain.VectorIndex
	retriever domain.Retriever
	prompts   *prompt.Builder
	completer domain.Completer
	topK      int
	log       *logrus.Logger

	slot chan struct{}
}

func New(index domain.VectorIndex, retriever domain.Retriever, prompts *prompt.Builder, completer domain.Completer, topK int, log *logrus.Logger) *Engine {
	if topK <= 0 {
		topK = 4
	}
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		index:     index,
		retriever: retriever,
		prompts:   prompts,
		completer: completer,
		topK:      topK,
		log:       log,
		slot:      make(chan struct{}, 1),
	}
}

func (e *Engine) acquire(ctx context.Context) error {
	select {
	case e.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() { <-e.slot }

// Answer retrieves grounding for the question, invokes the model once and
// blocks until the full answer is produced. Returns the answer text and the
// deduplicated sources of the retrieval used. Fails with ErrNotReady when no
// index has been built.
func (e *Engine) Answer(ctx context.Context, question string) (string, []string, error) {
	if !e.index.Exists() {
		return "", nil, domain.ErrNotReady
	}
	if err := e.acquire(ctx); err != nil {
		return "", nil, err
	}
	defer e.release()

	res, err := e.retriever.Retrieve(ctx, question, e.topK)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve: %w", err)
	}
	text, err := e.completer.Complete(ctx, e.prompts.Build(question, res.Chunks))
	if err != nil {
		return "", nil, &domain.GenerationError{Err: err}
	}
	return text, res.Sources, nil
}

// Stream starts a streaming query and returns its session once the model
// slot is held. Tokens are produced by a background goroutine; the caller
// consumes Session.Events until the terminal event. Cancelling ctx makes the
// producer stop forwarding, but the in-flight model call is not preemptible
// mid-token: it winds down through its own request teardown, so a burst of
// cancellations can briefly hold the slot.
func (e *Engine) Stream(ctx context.Context, question string) (*Session, error) {
	if !e.index.Exists() {
		return nil, domain.ErrNotReady
	}
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	sess := newSession(question)
	go e.generate(ctx, sess)
	return sess, nil
}

// generate is the producer side of the relay: retrieval, prompt assembly,
// then one model stream forwarded token by token. Exactly one terminal event
// is emitted on every path, and the event channel is closed afterwards.
func (e *Engine) generate(ctx context.Context, sess *Session) {
	defer e.release()
	defer close(sess.events)

	log := e.log.WithFields(logrus.Fields{"session": sess.ID})

	res, err := e.retriever.Retrieve(ctx, sess.Query, e.topK)
	if err != nil {
		log.WithError(err).Error("retrieval failed")
		sess.fail(ctx, fmt.Errorf("retrieve: %w", err))
		return
	}
	sess.sources = res.Sources

	stream, err := e.completer.Stream(ctx, e.prompts.Build(sess.Query, res.Chunks))
	if err != nil {
		log.WithError(err).Error("model stream failed to start")
		sess.fail(ctx, &domain.GenerationError{Err: err})
		return
	}
	defer stream.Close()

	sess.setState(StateStreaming)
	tokens := 0
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.WithError(err).Error("model stream broke mid-generation")
			sess.fail(ctx, &domain.GenerationError{Err: err})
			return
		}
		if !sess.push(ctx, Event{Token: tok}) {
			log.WithField("tokens", tokens).Debug("consumer gone, dropping stream")
			sess.setState(StateError)
			return
		}
		tokens++
	}
	log.WithField("tokens", tokens).Debug("stream complete")
	sess.finish(ctx)
}
