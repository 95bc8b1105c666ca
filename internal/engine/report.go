package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/wbemctl/internal/wbem"
	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// ClassQuery selects classes and the detail reported for each.
type ClassQuery struct {
	// Filter is a WQL LIKE pattern on the class name; empty matches all
	Filter         string
	WithProperties bool
	WithMethods    bool
}

// ClassInfo describes one class.
type ClassInfo struct {
	Name       string           `json:"name"`
	Properties []string         `json:"properties,omitempty"`
	Methods    []wbem.MethodDef `json:"methods,omitempty"`
}

// Property is one rendered property value.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ObjectInfo is a property dump of one class or instance.
type ObjectInfo struct {
	Class      string     `json:"class"`
	Path       string     `json:"path"`
	Properties []Property `json:"properties"`
}

// Classes lists the classes matching q, sorted by name.
func (e *Engine) Classes(q ClassQuery) ([]ClassInfo, error) {
	svc, err := e.ensureConnected()
	if err != nil {
		return nil, err
	}

	names, err := svc.ClassNames(q.Filter)
	if err != nil {
		return nil, err
	}

	classes := make([]ClassInfo, 0, len(names))
	for _, name := range names.Sorted() {
		info := ClassInfo{Name: name}
		if q.WithProperties || q.WithMethods {
			if err := e.describeClass(svc, &info, q); err != nil {
				return nil, err
			}
		}
		classes = append(classes, info)
	}
	e.logger.Debug("classes listed", "filter", q.Filter, "count", len(classes))
	return classes, nil
}

func (e *Engine) describeClass(svc *wbem.Services, info *ClassInfo, q ClassQuery) error {
	obj, err := svc.Object(info.Name)
	if err != nil {
		return err
	}
	defer obj.Release()

	if q.WithProperties {
		if info.Properties, err = obj.Properties(); err != nil {
			return err
		}
	}
	if q.WithMethods {
		if info.Methods, err = obj.Methods(); err != nil {
			return err
		}
	}
	return nil
}

// Instances dumps every instance of class. props selects the reported
// properties; when empty all non-system properties are reported.
func (e *Engine) Instances(class string, props []string) ([]ObjectInfo, error) {
	svc, err := e.ensureConnected()
	if err != nil {
		return nil, err
	}

	objs, err := svc.Instances(class)
	if err != nil {
		return nil, err
	}
	defer wbem.ReleaseAll(objs)

	out := make([]ObjectInfo, 0, len(objs))
	for _, obj := range objs {
		info, err := dump(obj, props)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Describe dumps the class definition or instance at path.
func (e *Engine) Describe(path string, props []string) (*ObjectInfo, error) {
	svc, err := e.ensureConnected()
	if err != nil {
		return nil, err
	}

	obj, err := svc.Object(path)
	if err != nil {
		return nil, err
	}
	defer obj.Release()

	info, err := dump(obj, props)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Methods lists the methods of the class or instance at path.
func (e *Engine) Methods(path string) ([]wbem.MethodDef, error) {
	svc, err := e.ensureConnected()
	if err != nil {
		return nil, err
	}

	obj, err := svc.Object(path)
	if err != nil {
		return nil, err
	}
	defer obj.Release()
	return obj.Methods()
}

func dump(obj *wbem.Object, props []string) (ObjectInfo, error) {
	var info ObjectInfo
	var err error
	if info.Class, err = obj.ClassName(); err != nil {
		return ObjectInfo{}, err
	}
	if info.Path, err = obj.RelPath(); err != nil {
		return ObjectInfo{}, err
	}

	names := props
	if len(names) == 0 {
		if names, err = obj.Properties(); err != nil {
			return ObjectInfo{}, err
		}
	}
	info.Properties = make([]Property, 0, len(names))
	for _, name := range names {
		text, err := renderProperty(obj, name)
		if err != nil {
			return ObjectInfo{}, fmt.Errorf("property %s: %w", name, err)
		}
		info.Properties = append(info.Properties, Property{Name: name, Value: text})
	}
	return info, nil
}

// renderProperty reads and formats one property, releasing any embedded
// record it carried.
func renderProperty(obj *wbem.Object, name string) (string, error) {
	v, err := obj.Variant(name)
	if err != nil {
		return "", err
	}
	defer v.Release()
	return FormatValue(v)
}

// FormatValue renders a variant for display. Scalars render as
// wbem.Text does; arrays render as {a, b} and embedded objects by class.
func FormatValue(v core.Variant) (string, error) {
	switch v.Kind() {
	case core.KindArray:
		items := v.Array()
		parts := make([]string, len(items))
		for i, item := range items {
			text, err := FormatValue(item)
			if err != nil {
				return "", err
			}
			parts[i] = text
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case core.KindObject:
		rec := v.Object()
		if rec == nil {
			return wbem.NullText, nil
		}
		cls, err := rec.Get(core.PropClass)
		if err != nil || cls.Kind() != core.KindString {
			return "<object>", nil
		}
		return "<" + cls.Text() + ">", nil
	}
	return wbem.Text(v)
}

// sortedProperties renders a parameter map ordered by name.
func sortedProperties(m wbem.ParamMap) ([]Property, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Property, 0, len(names))
	for _, name := range names {
		text, err := FormatValue(m[name])
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", name, err)
		}
		out = append(out, Property{Name: name, Value: text})
	}
	return out, nil
}
