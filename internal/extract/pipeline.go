package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/hearthside/eventsift/internal/model"
)

type stage string

const (
	stageUnwrapping  stage = "unwrapping"
	stageNormalizing stage = "normalizing"
	stageResolving   stage = "resolving_times"
	stageValidating  stage = "validating"
	stageAssembling  stage = "assembling"
	stageFallback    stage = "fallback"
	stageDone        stage = "done"
)

// errAllRejected reports that candidates existed but none survived.
var errAllRejected = errors.New("no candidate survived validation")

// run is the state of one invocation.
type run struct {
	p         *Pipeline
	raw       string
	userInput string
	ref       time.Time
	log       zerolog.Logger
	stage     stage
}

func (p *Pipeline) newRun(noun, raw, userInput string, ref time.Time) *run {
	return &run{
		p:         p,
		raw:       raw,
		userInput: userInput,
		ref:       ref,
		log:       p.log.With().Str("kind", noun).Logger(),
	}
}

func (r *run) enter(s stage) {
	r.log.Debug().Str("from", string(r.stage)).Str("to", string(s)).Msg("stage transition")
	r.stage = s
}

// kind binds one record type to the state machine. D is the per-record
// draft carried from resolving_times into validating.
type kind[D, T any] struct {
	noun   string
	schema schema
	// resolve reads a normalized candidate. An error drops the candidate.
	resolve func(r *run, c candidate) (D, error)
	// validate repairs or rejects a draft.
	validate func(r *run, d D) (T, error)
	// finish post-processes the surviving records; optional.
	finish func(r *run, recs []T) []T
	// fallback builds best-effort records from text; optional.
	fallback   func(r *run, text string, path FallbackPath) []T
	confidence func(T) float64
}

// execute drives one model response through unwrapping, normalizing,
// resolving_times, validating and assembling. Any stage error, and any
// panic, moves the run to the fallback state instead.
func execute[D, T any](r *run, k kind[D, T]) (env model.Envelope[T]) {
	dropped := 0
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%s: %v", r.stage, rec)
			r.log.Error().Err(err).Msg("stage panicked")
			env = degrade(r, k, FallbackParseError, err, dropped)
		}
	}()

	r.enter(stageUnwrapping)
	body, err := Unwrap(r.raw)
	if err != nil {
		return degrade(r, k, FallbackNoJSON, err, dropped)
	}
	payload, err := decode(body)
	if err != nil {
		return degrade(r, k, FallbackParseError, err, dropped)
	}

	r.enter(stageNormalizing)
	objs, meta, skipped := k.schema.records(payload)
	dropped += skipped
	seen := len(objs) + skipped
	cands := make([]candidate, 0, len(objs))
	for i, obj := range objs {
		c := k.schema.normalize(obj)
		if f := k.schema.missing(c); f != "" {
			r.log.Debug().Int("candidate", i).Str("field", f).Msg("candidate dropped: missing field")
			dropped++
			continue
		}
		cands = append(cands, c)
	}

	r.enter(stageResolving)
	drafts := make([]D, 0, len(cands))
	for i, c := range cands {
		d, err := k.resolve(r, c)
		if err != nil {
			r.log.Debug().Int("candidate", i).Err(err).Msg("candidate dropped: unresolved")
			dropped++
			continue
		}
		drafts = append(drafts, d)
	}

	r.enter(stageValidating)
	recs := make([]T, 0, len(drafts))
	for i, d := range drafts {
		rec, err := k.validate(r, d)
		if err == nil {
			err = model.Validate(rec)
		}
		if err != nil {
			r.log.Debug().Int("candidate", i).Err(err).Msg("candidate dropped: invalid")
			dropped++
			continue
		}
		recs = append(recs, rec)
	}

	r.enter(stageAssembling)
	if len(recs) == 0 && seen > 0 && nonTrivial(r.userInput) {
		return degrade(r, k, FallbackRejected, errAllRejected, dropped)
	}
	if k.finish != nil {
		before := len(recs)
		recs = k.finish(r, recs)
		dropped += before - len(recs)
	}

	env = model.Envelope[T]{
		Records:     recs,
		Summary:     meta.summary,
		Confidence:  meanConfidence(recs, k.confidence),
		RawResponse: r.raw,
		UserInput:   r.userInput,
		Stage:       model.StageDone,
		Dropped:     dropped,
	}
	if len(recs) == 0 {
		env.Confidence = DefaultConfidence
		if meta.hasConf {
			env.Confidence = meta.confidence
		}
	}
	if env.Summary == "" {
		env.Summary = summarize(k.noun, len(recs), dropped)
	}
	r.enter(stageDone)
	return env
}

// degrade builds the envelope for the fallback state. The source text is
// the user input when present, else the raw response.
func degrade[D, T any](r *run, k kind[D, T], path FallbackPath, cause error, dropped int) (env model.Envelope[T]) {
	r.enter(stageFallback)
	r.log.Info().Str("path", path.String()).Err(cause).Msg("structured extraction failed, using fallback")

	env = model.Envelope[T]{
		Records:     []T{},
		RawResponse: r.raw,
		UserInput:   r.userInput,
		Stage:       model.StageFallback,
		Dropped:     dropped,
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("fallback panicked")
			env.Records = []T{}
			env.Confidence = 0
		}
		r.enter(stageDone)
	}()

	source := r.userInput
	if strings.TrimSpace(source) == "" {
		source = r.raw
	}
	if k.fallback != nil {
		for _, rec := range k.fallback(r, source, path) {
			if err := model.Validate(rec); err != nil {
				r.log.Debug().Err(err).Msg("fallback record invalid")
				continue
			}
			env.Records = append(env.Records, rec)
		}
	}
	if len(env.Records) > 0 {
		env.Confidence = meanConfidence(env.Records, k.confidence)
	}
	env.Summary = fallbackSummary(k.noun, path, cause, len(env.Records))
	return env
}

func meanConfidence[T any](recs []T, conf func(T) float64) float64 {
	if len(recs) == 0 || conf == nil {
		return 0
	}
	var sum float64
	for _, rec := range recs {
		sum += conf(rec)
	}
	return sum / float64(len(recs))
}

func summarize(noun string, n, dropped int) string {
	if n == 0 && dropped == 0 {
		return fmt.Sprintf("no %ss found", noun)
	}
	s := fmt.Sprintf("extracted %d %s(s)", n, noun)
	if dropped > 0 {
		s += fmt.Sprintf(", dropped %d", dropped)
	}
	return s
}

func fallbackSummary(noun string, path FallbackPath, cause error, n int) string {
	var s string
	switch path {
	case FallbackParseError:
		s = fmt.Sprintf("could not parse model output: %v", cause)
	case FallbackRejected:
		s = "no candidate survived validation"
	default:
		s = "no structured data in model output"
	}
	if n == 0 {
		return s + "; no usable input"
	}
	return fmt.Sprintf("%s; built %d best-effort %s(s) from the input", s, n, noun)
}

// nonTrivial reports whether s holds at least two letters or digits.
func nonTrivial(s string) bool {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
			if n >= 2 {
				return true
			}
		}
	}
	return false
}
