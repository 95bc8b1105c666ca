package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/wbemctl/internal/history"
	"github.com/leapstack-labs/wbemctl/internal/wbem"
)

// ErrNoMatchingInstance is returned by Invoke when no instance satisfies
// the Where selection.
var ErrNoMatchingInstance = errors.New("no matching instance")

// InvokeRequest describes a method call.
type InvokeRequest struct {
	// Target is an object path, or a class name when Where is set
	Target string
	// Where selects the first instance whose properties render equal
	// (case-insensitively) to every value
	Where  map[string]string
	Method string
	Params []wbem.Param
}

// InvokeResult is the outcome of a successful call.
type InvokeResult struct {
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	ReturnValue  string        `json:"return_value"`
	Outputs      []Property    `json:"outputs"`
	InvocationID string        `json:"invocation_id,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Invoke resolves the target object and calls req.Method on it. Every
// attempt is recorded when history is enabled.
func (e *Engine) Invoke(req InvokeRequest) (*InvokeResult, error) {
	started := time.Now()
	inv := &history.Invocation{
		Namespace: e.namespace,
		Path:      req.Target,
		Method:    req.Method,
		Inputs:    renderParams(req.Params),
		Outputs:   map[string]string{},
		StartedAt: started,
	}

	result, err := e.invoke(req, inv)

	inv.CompletedAt = time.Now()
	inv.DurationMs = inv.CompletedAt.Sub(started).Milliseconds()
	inv.Status = history.StatusSuccess
	if err != nil {
		inv.Status = history.StatusFailed
		inv.Error = err.Error()
	}
	e.record(inv)

	if err != nil {
		return nil, err
	}
	result.InvocationID = inv.ID
	result.Duration = inv.CompletedAt.Sub(started)
	return result, nil
}

func (e *Engine) invoke(req InvokeRequest, inv *history.Invocation) (*InvokeResult, error) {
	svc, err := e.ensureConnected()
	if err != nil {
		return nil, err
	}

	obj, err := e.resolve(svc, req)
	if err != nil {
		return nil, err
	}
	defer obj.Release()

	path, err := obj.RelPath()
	if err != nil {
		return nil, err
	}
	inv.Path = path

	e.logger.Info("invoking method", "path", path, "method", req.Method, "params", len(req.Params))
	out := make(wbem.ParamMap)
	ret, err := obj.ExecMethod(req.Method, req.Params, out)
	defer out.Release()
	if err != nil {
		return nil, err
	}
	defer ret.Release()

	result := &InvokeResult{Path: path, Method: req.Method}
	if result.ReturnValue, err = FormatValue(ret); err != nil {
		return nil, fmt.Errorf("return value: %w", err)
	}
	if result.Outputs, err = sortedProperties(out); err != nil {
		return nil, err
	}

	inv.ReturnValue = result.ReturnValue
	for _, p := range result.Outputs {
		inv.Outputs[p.Name] = p.Value
	}
	return result, nil
}

// resolve returns the object to invoke on.
func (e *Engine) resolve(svc *wbem.Services, req InvokeRequest) (*wbem.Object, error) {
	if len(req.Where) == 0 {
		return svc.Object(req.Target)
	}

	objs, err := svc.Instances(req.Target)
	if err != nil {
		return nil, err
	}
	var found *wbem.Object
	for _, obj := range objs {
		if found == nil {
			ok, err := matches(obj, req.Where)
			if err != nil {
				wbem.ReleaseAll(objs)
				return nil, err
			}
			if ok {
				found = obj
				continue
			}
		}
		obj.Release()
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s where %s", ErrNoMatchingInstance, req.Target, describeWhere(req.Where))
	}
	return found, nil
}

func matches(obj *wbem.Object, where map[string]string) (bool, error) {
	for name, want := range where {
		got, err := renderProperty(obj, name)
		if err != nil {
			return false, fmt.Errorf("property %s: %w", name, err)
		}
		if !strings.EqualFold(got, want) {
			return false, nil
		}
	}
	return true, nil
}

func describeWhere(where map[string]string) string {
	parts := make([]string, 0, len(where))
	for name, value := range where {
		parts = append(parts, name+"="+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func renderParams(params []wbem.Param) map[string]string {
	out := make(map[string]string, len(params))
	for _, p := range params {
		text, err := FormatValue(p.Value)
		if err != nil {
			text = p.Value.String()
		}
		out[p.Name] = text
	}
	return out
}

// record saves inv. A failing store is logged and does not fail the call.
func (e *Engine) record(inv *history.Invocation) {
	if e.store == nil {
		return
	}
	if err := e.store.Record(inv); err != nil {
		e.logger.Warn("failed to record invocation", "method", inv.Method, "error", err)
		return
	}
	e.logger.Debug("invocation recorded", "id", inv.ID, "status", inv.Status)
}
