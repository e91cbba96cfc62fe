// Package harness implements the record-or-verify flow around a function
// call: the first invocation captures arguments and result, later
// invocations recompute the result and compare it against the captured
// value.
package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/regrest/internal/codec"
	"github.com/roach88/regrest/internal/config"
	"github.com/roach88/regrest/internal/logger"
	"github.com/roach88/regrest/internal/match"
	"github.com/roach88/regrest/internal/record"
	"github.com/roach88/regrest/internal/store"
)

// Status describes what a Check invocation did.
type Status string

const (
	// StatusRecorded - no prior record existed; the result was captured.
	StatusRecorded Status = "recorded"
	// StatusUpdated - update mode replaced the existing record.
	StatusUpdated Status = "updated"
	// StatusPassed - the recomputed result matched the record.
	StatusPassed Status = "passed"
	// StatusFailed - the recomputed result diverged from the record.
	StatusFailed Status = "failed"
	// StatusLoadFailed - the existing record could not be decoded; it was
	// left untouched.
	StatusLoadFailed Status = "load_failed"
)

// Outcome is the result of one Check.
type Outcome struct {
	Status   Status
	Subject  record.Subject
	RecordID string
	Mismatch match.Result // populated when Status == StatusFailed
	LoadErr  error        // populated when Status == StatusLoadFailed
}

// VerificationError is returned by Check in strict mode when verification
// fails or an existing record cannot be loaded.
type VerificationError struct {
	Outcome Outcome
}

func (e *VerificationError) Error() string {
	if e.Outcome.Status == StatusLoadFailed {
		return fmt.Sprintf("regression record for %s could not be loaded: %v",
			e.Outcome.Subject, e.Outcome.LoadErr)
	}
	return fmt.Sprintf("regression test failed for %s: %s",
		e.Outcome.Subject, e.Outcome.Mismatch.Message)
}

func (e *VerificationError) Unwrap() error {
	return e.Outcome.LoadErr
}

// Harness binds a store, a configuration, and a resolution context into
// the record-or-verify flow. It holds no state between calls beyond those
// collaborators.
type Harness struct {
	Store     store.Store
	Config    config.Config
	Assembler *record.Assembler
}

// New creates a harness. rc may be nil when no user-defined types cross
// the codec boundary.
func New(st store.Store, cfg config.Config, rc *codec.ResolutionContext) *Harness {
	if rc == nil {
		rc = codec.NewResolutionContext()
	}
	return &Harness{
		Store:     st,
		Config:    cfg,
		Assembler: record.NewAssembler(rc),
	}
}

// Open creates a harness with the store selected by cfg.Backend.
func Open(cfg config.Config, rc *codec.ResolutionContext) (*Harness, error) {
	st, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	return New(st, cfg, rc), nil
}

// Check runs the record-or-verify flow for one call.
//
// If no record exists for the call's fingerprint (or update mode is on),
// the result is captured and persisted. Otherwise the stored result is
// decoded and matched against the recomputed one. A record that fails to
// decode is reported as StatusLoadFailed and deliberately NOT overwritten,
// so a broken ResolutionContext cannot destroy prior captures.
//
// In strict mode (Config.Strict) a failed or unloadable verification is
// returned as *VerificationError; otherwise it is logged and the Outcome
// carries the details.
func (h *Harness) Check(subject record.Subject, args []any, kwargs map[string]any, result any) (Outcome, error) {
	id := record.Fingerprint(subject, args, kwargs)
	key := record.Key(subject, id)

	logger.Debug("checking %s (record %s)", subject, id)

	data, found, err := h.Store.Get(key)
	if err != nil {
		return Outcome{}, fmt.Errorf("check %s: %w", subject, err)
	}

	if !found || h.Config.Update {
		rec, err := h.Assembler.Capture(subject, args, kwargs, result)
		if err != nil {
			return Outcome{}, fmt.Errorf("check %s: %w", subject, err)
		}
		payload, err := rec.Marshal()
		if err != nil {
			return Outcome{}, fmt.Errorf("check %s: %w", subject, err)
		}
		if err := h.Store.Put(key, payload); err != nil {
			return Outcome{}, fmt.Errorf("check %s: %w", subject, err)
		}

		status := StatusRecorded
		if found {
			status = StatusUpdated
			logger.Info("updated: %s", subject)
		} else {
			logger.Info("recorded: %s", subject)
		}
		return Outcome{Status: status, Subject: subject, RecordID: id}, nil
	}

	existing, err := record.Parse(data)
	if err == nil {
		var verdict match.Result
		verdict, err = h.Assembler.Verify(existing, result, match.Config{Tolerance: h.Config.Tolerance})
		if err == nil {
			if verdict.OK {
				logger.Info("passed: %s", subject)
				return Outcome{Status: StatusPassed, Subject: subject, RecordID: id}, nil
			}
			outcome := Outcome{Status: StatusFailed, Subject: subject, RecordID: id, Mismatch: verdict}
			if h.Config.Strict {
				return outcome, &VerificationError{Outcome: outcome}
			}
			logger.Error("regression test failed for %s", subject)
			logger.Error("%s", verdict.Message)
			return outcome, nil
		}
	}

	// Load or decode failure: surface it, keep the record.
	outcome := Outcome{Status: StatusLoadFailed, Subject: subject, RecordID: id, LoadErr: err}
	if h.Config.Strict {
		return outcome, &VerificationError{Outcome: outcome}
	}
	logger.Error("failed to load existing record for %s: %v", subject, err)
	if name := codec.UnresolvedTypeName(err); name != "" {
		logger.Error("register type %q in the resolution context and retry", name)
	}
	logger.Warn("skipping save for %s to avoid overwriting the stored record", subject)
	return outcome, nil
}

// OpenStore builds the store selected by cfg.Backend.
func OpenStore(cfg config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", cfg.StorageDir, err)
		}
		return store.OpenSQLite(filepath.Join(cfg.StorageDir, "records.db"))
	default:
		return store.NewFileStore(cfg.StorageDir)
	}
}
