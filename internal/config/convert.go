package config

import (
	"time"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

// decode converts a rawDocument (the on-disk shape) into a normalized
// Document: variant fields resolved, env references expanded, per-check
// IDs/names assigned from their map keys.
func (r *rawDocument) decode() (*Document, error) {
	doc := &Document{
		Version:        r.Version,
		Env:            expandEnvMap(r.Env),
		AIProvider:     r.AIProvider,
		AIModel:        r.AIModel,
		AITemperature:  r.AITemperature,
		MaxParallelism: r.MaxParallelism,
		Memory: MemoryConfig{
			Storage:   r.Memory.Storage,
			File:      r.Memory.File,
			Format:    r.Memory.Format,
			Namespace: r.Memory.Namespace,
			AutoLoad:  r.Memory.AutoLoad,
			AutoSave:  r.Memory.AutoSave,
		},
		Output: OutputConfig{PRComment: PRCommentConfig{
			Format:   r.Output.PRComment.Format,
			GroupBy:  r.Output.PRComment.GroupBy,
			Collapse: r.Output.PRComment.Collapse,
		}},
		FailIf: r.FailIf,
	}

	if len(r.FailureConditions) > 0 {
		doc.FailureConditions = make(map[string]core.FailureCondition, len(r.FailureConditions))
		for name, fc := range r.FailureConditions {
			doc.FailureConditions[name] = decodeFailureCondition(name, fc)
		}
	}

	doc.Checks = make(map[string]core.CheckConfig, len(r.Checks))
	for id, rc := range r.Checks {
		cc, err := decodeCheckConfig(id, rc)
		if err != nil {
			return nil, err
		}
		doc.Checks[id] = cc
	}

	return doc, nil
}

func decodeFailureCondition(name string, rc rawFailureCondition) core.FailureCondition {
	return core.FailureCondition{
		Name:          name,
		Condition:     rc.Condition,
		Message:       rc.Message,
		Severity:      core.Severity(rc.Severity),
		HaltExecution: rc.HaltExecution,
	}
}

func decodeRetryPolicy(rc *rawRetryPolicy) (*core.RetryPolicy, error) {
	if rc == nil {
		return nil, nil
	}
	backoff, err := parseDuration(rc.Backoff)
	if err != nil {
		return nil, err
	}
	return &core.RetryPolicy{MaxAttempts: rc.MaxAttempts, Backoff: backoff}, nil
}

func decodeRoutingAction(ra *rawRoutingAction) (*core.RoutingAction, error) {
	if ra == nil {
		return nil, nil
	}
	retry, err := decodeRetryPolicy(ra.Retry)
	if err != nil {
		return nil, err
	}
	return &core.RoutingAction{
		Run:       ra.Run,
		RunJS:     ra.RunJS,
		Goto:      ra.Goto,
		GotoJS:    ra.GotoJS,
		GotoEvent: ra.GotoEvent,
		Retry:     retry,
	}, nil
}

func decodeCheckConfig(id string, rc rawCheckConfig) (core.CheckConfig, error) {
	timeout, err := parseDuration(rc.Timeout)
	if err != nil {
		return core.CheckConfig{}, verrors.New(verrors.KindConfigValidate, "config.decode", id, err)
	}

	onSuccess, err := decodeRoutingAction(rc.OnSuccess)
	if err != nil {
		return core.CheckConfig{}, verrors.New(verrors.KindConfigValidate, "config.decode", id, err)
	}
	onFail, err := decodeRoutingAction(rc.OnFail)
	if err != nil {
		return core.CheckConfig{}, verrors.New(verrors.KindConfigValidate, "config.decode", id, err)
	}
	onFinish, err := decodeRoutingAction(rc.OnFinish)
	if err != nil {
		return core.CheckConfig{}, verrors.New(verrors.KindConfigValidate, "config.decode", id, err)
	}
	retry, err := decodeRetryPolicy(rc.Retry)
	if err != nil {
		return core.CheckConfig{}, verrors.New(verrors.KindConfigValidate, "config.decode", id, err)
	}

	var failureConditions map[string]core.FailureCondition
	if len(rc.FailureConditions) > 0 {
		failureConditions = make(map[string]core.FailureCondition, len(rc.FailureConditions))
		for name, fc := range rc.FailureConditions {
			failureConditions[name] = decodeFailureCondition(name, fc)
		}
	}

	return core.CheckConfig{
		ID:                id,
		Type:              rc.Type,
		Tags:              rc.Tags,
		Group:             rc.Group,
		On:                []string(rc.On),
		DependsOn:         []string(rc.DependsOn),
		If:                rc.If,
		ForEach:           rc.ForEach,
		Timeout:           timeout,
		FailIf:            rc.FailIf,
		FailureConditions: failureConditions,
		OnSuccess:         onSuccess,
		OnFail:            onFail,
		OnFinish:          onFinish,
		ContinueOnFailure: rc.ContinueOnFailure,
		MaxLoops:          rc.MaxLoops,
		Env:               expandEnvMap(rc.Env),
		Retry:             retry,

		Prompt:        rc.Prompt,
		Schema:        rc.Schema,
		Exec:          rc.Exec,
		TranscriptDir: rc.TranscriptDir,
		Content:       rc.Content,
		Operation:     rc.Operation,
		Key:           rc.Key,
		Value:         rc.Value,
		ValueJS:       rc.ValueJS,
		MemoryJS:      rc.MemoryJS,
		Namespace:     rc.Namespace,
		Transform:     rc.Transform,
		TransformJS:   rc.TransformJS,
	}, nil
}

// parseDuration parses a Go duration string ("30s", "2m"), treating an
// empty string as "unset" (zero duration, caller applies its own default).
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
