package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cotin/chatcotin/models"
)

// User-facing messages for the failure paths. The invoker always resolves to
// a displayable answer; callers never see a raw backend error.
const (
	msgOverloaded = "O serviço de geração está temporariamente sobrecarregado. " +
		"Por favor, tente novamente em alguns instantes."
	msgRateLimited = "O limite de requisições ao serviço de geração foi atingido. " +
		"Aguarde um momento antes de tentar novamente."
	msgUnauthenticated = "Falha de autenticação com o serviço de geração. " +
		"Verifique as credenciais configuradas."
	msgContextTooLarge = "Não foi possível gerar a resposta: o contexto recuperado " +
		"excede o limite do modelo, mesmo após redução."
	msgUnknownFmt = "Ocorreu um erro ao gerar a resposta: %s"
)

// Result is the outcome of one invocation. Degraded marks answers that
// communicate a failure instead of a model completion.
type Result struct {
	Answer   string
	Attempts int
	Waits    []time.Duration
	Degraded bool
	Shrunk   bool
}

// Invoker drives a Generator through truncation, retry, and failure
// translation. Context and history are capped before the first call; a
// context-too-large signal on the first attempt triggers one retry with a
// smaller budget; overload is retried with linear backoff up to the attempt
// ceiling. Every failure resolves to a user-readable answer.
type Invoker struct {
	gen          Generator
	maxAttempts  int
	baseDelay    time.Duration
	contextChars int
	shrunkChars  int
	historyChars int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker builds an invoker around a backend.
func NewInvoker(gen Generator, maxAttempts int, baseDelay time.Duration, contextChars, shrunkChars, historyChars int) *Invoker {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Invoker{
		gen:          gen,
		maxAttempts:  maxAttempts,
		baseDelay:    baseDelay,
		contextChars: contextChars,
		shrunkChars:  shrunkChars,
		historyChars: historyChars,
		sleep:        sleepCtx,
	}
}

// Invoke runs the generation state machine. The returned error is non-nil
// only when ctx is cancelled; every backend failure resolves into
// Result.Answer.
func (inv *Invoker) Invoke(ctx context.Context, pc models.PromptContext, params Params) (Result, error) {
	var res Result

	pc.Context = truncateRunes(pc.Context, inv.contextChars)
	pc.History = truncateRunes(pc.History, inv.historyChars)

	for attempt := 0; attempt < inv.maxAttempts; attempt++ {
		res.Attempts = attempt + 1

		answer, err := inv.gen.Generate(ctx, BuildMessages(pc), params)
		if err == nil {
			res.Answer = answer
			return res, nil
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		kind := KindOf(err)
		log.Printf("INVOKER: attempt %d failed (%s): %v", attempt+1, kind, err)

		switch kind {
		case FailureOverloaded:
			if attempt+1 >= inv.maxAttempts {
				res.Answer = msgOverloaded
				res.Degraded = true
				return res, nil
			}
			wait := time.Duration(attempt+1) * inv.baseDelay
			res.Waits = append(res.Waits, wait)
			if err := inv.sleep(ctx, wait); err != nil {
				return res, err
			}

		case FailureContextTooLarge:
			if attempt == 0 && !res.Shrunk {
				res.Shrunk = true
				pc.Context = truncateRunes(pc.Context, inv.shrunkChars)
				continue
			}
			res.Answer = msgContextTooLarge
			res.Degraded = true
			return res, nil

		case FailureRateLimited:
			res.Answer = msgRateLimited
			res.Degraded = true
			return res, nil

		case FailureUnauthenticated:
			res.Answer = msgUnauthenticated
			res.Degraded = true
			return res, nil

		default:
			res.Answer = fmt.Sprintf(msgUnknownFmt, err)
			res.Degraded = true
			return res, nil
		}
	}

	res.Answer = msgOverloaded
	res.Degraded = true
	return res, nil
}

// truncateRunes caps s to max runes. Non-positive max disables the cap.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
