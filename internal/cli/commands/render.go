package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/wbemctl/internal/cli/output"
	"github.com/leapstack-labs/wbemctl/internal/engine"
	"github.com/leapstack-labs/wbemctl/internal/history"
	"github.com/leapstack-labs/wbemctl/internal/wbem"
)

// renderClasses prints a class listing. Without detail it is one name
// per line; with detail each class gets its own section.
func renderClasses(r *output.Renderer, namespace string, classes []engine.ClassInfo, q engine.ClassQuery) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(classes)
	}

	r.Header(1, fmt.Sprintf("Classes in %s (%d)", namespace, len(classes)))
	if !q.WithProperties && !q.WithMethods {
		for _, c := range classes {
			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println("- " + c.Name)
			} else {
				r.Println("  " + c.Name)
			}
		}
		return nil
	}

	for _, c := range classes {
		r.Header(2, c.Name)
		if q.WithProperties {
			r.Println(r.Styles().Bold.Render("Properties:"))
			for _, p := range c.Properties {
				r.Println("  - " + p)
			}
		}
		if q.WithMethods {
			r.Println(r.Styles().Bold.Render("Methods:"))
			for _, m := range c.Methods {
				r.Println("  - " + formatMethod(m))
			}
		}
		r.Println("")
	}
	return nil
}

// formatMethod renders a signature as Name(in, ...) -> out, ...
func formatMethod(m wbem.MethodDef) string {
	sig := m.Name + "(" + strings.Join(m.In, ", ") + ")"
	if len(m.Out) > 0 {
		sig += " -> " + strings.Join(m.Out, ", ")
	}
	return sig
}

// renderObjects prints each object's path followed by its properties.
func renderObjects(r *output.Renderer, class string, objects []engine.ObjectInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(objects)
	}
	r.Header(1, fmt.Sprintf("%s (%d instances)", class, len(objects)))
	for _, obj := range objects {
		renderObjectBody(r, obj)
	}
	return nil
}

// renderObject prints one object.
func renderObject(r *output.Renderer, obj *engine.ObjectInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(obj)
	}
	renderObjectBody(r, *obj)
	return nil
}

func renderObjectBody(r *output.Renderer, obj engine.ObjectInfo) {
	r.Header(2, obj.Path)
	for _, p := range obj.Properties {
		r.KeyValue(1, p.Name, p.Value)
	}
	r.Println("")
}

// renderMethods prints the method table of an object.
func renderMethods(r *output.Renderer, path string, methods []wbem.MethodDef) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(methods)
	}
	r.Header(1, fmt.Sprintf("Methods of %s (%d)", path, len(methods)))
	rows := make([][]string, 0, len(methods))
	for _, m := range methods {
		rows = append(rows, []string{m.Name, strings.Join(m.In, ", "), strings.Join(m.Out, ", ")})
	}
	r.Table([]string{"Method", "In", "Out"}, rows)
	return nil
}

// renderInvokeResult prints the outcome of a method call.
func renderInvokeResult(r *output.Renderer, res *engine.InvokeResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}
	r.Header(1, fmt.Sprintf("%s on %s", res.Method, res.Path))
	r.KeyValue(1, "ReturnValue", res.ReturnValue)
	for _, p := range res.Outputs {
		r.KeyValue(1, p.Name, p.Value)
	}
	if res.InvocationID != "" {
		r.Muted(fmt.Sprintf("invocation %s (%s)", res.InvocationID, res.Duration.Round(time.Millisecond)))
	}
	return nil
}

// renderHistory prints recorded invocations as a table.
func renderHistory(r *output.Renderer, invs []*history.Invocation) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(invs)
	}
	if len(invs) == 0 {
		r.Muted("No invocations recorded")
		return nil
	}
	rows := make([][]string, 0, len(invs))
	for _, inv := range invs {
		rows = append(rows, []string{
			inv.ID,
			inv.StartedAt.Local().Format(time.DateTime),
			inv.Path,
			inv.Method,
			inv.ReturnValue,
			formatStatus(r, inv.Status),
		})
	}
	r.Table([]string{"ID", "Started", "Path", "Method", "Return", "Status"}, rows)
	return nil
}

// renderInvocation prints one recorded invocation in full.
func renderInvocation(r *output.Renderer, inv *history.Invocation) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(inv)
	}
	r.Header(1, "Invocation "+inv.ID)
	r.KeyValue(1, "Namespace", inv.Namespace)
	r.KeyValue(1, "Path", inv.Path)
	r.KeyValue(1, "Method", inv.Method)
	r.KeyValue(1, "Status", formatStatus(r, inv.Status))
	r.KeyValue(1, "Started", inv.StartedAt.Local().Format(time.RFC3339))
	r.KeyValue(1, "Duration", (time.Duration(inv.DurationMs) * time.Millisecond).String())
	if inv.Error != "" {
		r.KeyValue(1, "Error", inv.Error)
	}
	if inv.ReturnValue != "" {
		r.KeyValue(1, "ReturnValue", inv.ReturnValue)
	}
	renderParamSection(r, "Inputs", inv.Inputs)
	renderParamSection(r, "Outputs", inv.Outputs)
	return nil
}

func renderParamSection(r *output.Renderer, title string, params map[string]string) {
	if len(params) == 0 {
		return
	}
	r.Header(2, title)
	for _, name := range sortedKeys(params) {
		r.KeyValue(1, name, params[name])
	}
}

func formatStatus(r *output.Renderer, s history.Status) string {
	if r.EffectiveMode() != output.ModeText {
		return string(s)
	}
	if s == history.StatusSuccess {
		return r.Styles().StatusSuccess.Render(string(s))
	}
	return r.Styles().StatusFailed.Render(string(s))
}
