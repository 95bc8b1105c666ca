// Package main provides a generator that snapshots classes of a live
// namespace into a fixture catalog for the fixture provider.
//
// Usage:
//
//	go run ./scripts/genfixture -filter='Win32_Logical%' -out=catalog.yaml
//	go run ./scripts/genfixture -namespace='ROOT\WMI' -filter='MSAcpi_%' -instances=2 -out=wmi.yaml
//
// Property types are inferred from the first non-null instance value and
// key properties from the relative path of the first instance. Method
// parameters are typed string, except ReturnValue which is uint32 and
// returns 0.
package main

import (
	"bytes"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/wbemctl/internal/wbem"
	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/leapstack-labs/wbemctl/pkg/provider"
	"github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
	"gopkg.in/yaml.v3"

	_ "github.com/leapstack-labs/wbemctl/pkg/providers/ole"
)

var (
	providerFlag  = flag.String("provider", "ole", "provider to snapshot from")
	namespaceFlag = flag.String("namespace", wbem.DefaultNamespace, "namespace to snapshot")
	filterFlag    = flag.String("filter", "", "WQL LIKE pattern selecting classes (required)")
	instancesFlag = flag.Int("instances", 3, "maximum instances captured per class")
	outFlag       = flag.String("out", "", "output file path (required)")
)

func main() {
	flag.Parse()

	if *filterFlag == "" {
		log.Fatal("--filter flag is required")
	}
	if *outFlag == "" {
		log.Fatal("--out flag is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	sub, err := provider.New(provider.Config{Type: *providerFlag}, logger)
	if err != nil {
		log.Fatalf("failed to create provider: %v", err)
	}
	session, err := wbem.Initialize(sub, logger)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer session.Close()

	svc, err := wbem.Connect(session, *namespaceFlag)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *namespaceFlag, err)
	}
	defer svc.Release()

	names, err := svc.ClassNames(*filterFlag)
	if err != nil {
		log.Fatalf("failed to enumerate classes: %v", err)
	}
	log.Printf("Matched %d classes in %s", len(names), *namespaceFlag)

	ns := fixture.NamespaceSpec{Name: *namespaceFlag}
	for _, name := range names.Sorted() {
		cs, err := snapshotClass(svc, name, *instancesFlag)
		if err != nil {
			log.Printf("warning: skipping %s: %v", name, err)
			continue
		}
		log.Printf("  %s: %d properties, %d methods, %d instances", name, len(cs.Properties), len(cs.Methods), len(cs.Instances))
		ns.Classes = append(ns.Classes, cs)
	}

	data, err := encode(fixture.File{Namespaces: []fixture.NamespaceSpec{ns}})
	if err != nil {
		log.Fatalf("failed to encode catalog: %v", err)
	}

	// The snapshot must load back
	if _, err := fixture.Parse(data); err != nil {
		log.Fatalf("generated catalog does not compile: %v", err)
	}

	if err := os.WriteFile(*outFlag, data, 0o600); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
	log.Printf("Generated %s", *outFlag)
}

func snapshotClass(svc *wbem.Services, name string, maxInstances int) (fixture.ClassSpec, error) {
	cs := fixture.ClassSpec{Name: name}

	cls, err := svc.Object(name)
	if err != nil {
		return cs, err
	}
	defer cls.Release()

	props, err := cls.Properties()
	if err != nil {
		return cs, err
	}
	if superclass, err := cls.Value("__SUPERCLASS"); err == nil && superclass != wbem.NullText {
		cs.Superclass = superclass
	}

	methods, err := cls.Methods()
	if err != nil {
		return cs, err
	}
	for _, m := range methods {
		cs.Methods = append(cs.Methods, methodSpec(m))
	}

	instances, err := svc.Instances(name)
	if err != nil {
		// Abstract classes have no instances to enumerate
		log.Printf("  %s: no instances: %v", name, err)
		instances = nil
	}
	defer wbem.ReleaseAll(instances)
	if len(instances) > maxInstances {
		instances = instances[:maxInstances]
	}

	types := make(map[string]string, len(props))
	var keys map[string]bool
	for i, inst := range instances {
		if i == 0 {
			if rel, err := inst.RelPath(); err == nil {
				keys = keyNames(rel)
			}
		}
		values := make(map[string]any, len(props))
		for _, p := range props {
			v, err := inst.Variant(p)
			if err != nil {
				continue
			}
			if !v.IsNull() && v.Kind() != core.KindEmpty && v.Kind() != core.KindObject {
				if _, seen := types[p]; !seen {
					types[p] = v.Kind().String()
				}
				values[p] = v.Interface()
			}
			v.Release()
		}
		cs.Instances = append(cs.Instances, fixture.InstanceSpec{Values: values})
	}

	for _, p := range props {
		typ, ok := types[p]
		if !ok {
			typ = core.KindString.String()
		}
		cs.Properties = append(cs.Properties, fixture.PropertySpec{Name: p, Type: typ, Key: keys[p]})
	}

	return cs, nil
}

func methodSpec(m wbem.MethodDef) fixture.MethodSpec {
	ms := fixture.MethodSpec{Name: m.Name}
	for _, in := range m.In {
		ms.In = append(ms.In, fixture.ParamSpec{Name: in, Type: "string"})
	}
	for _, out := range m.Out {
		typ := "string"
		if strings.EqualFold(out, core.ReturnValueField) {
			typ = "uint32"
			ms.Returns = map[string]any{out: 0}
		}
		ms.Out = append(ms.Out, fixture.ParamSpec{Name: out, Type: typ})
	}
	if len(m.Out) == 0 {
		ms.Void = true
	}
	return ms
}

// keyNames extracts the key property names of a relative path such as
// Win32_Service.Name="Spooler" or Class.A=1,B="x".
func keyNames(relPath string) map[string]bool {
	keys := make(map[string]bool)
	_, rest, ok := strings.Cut(relPath, ".")
	if !ok {
		return keys
	}
	inQuote := false
	start := 0
	for i := 0; i <= len(rest); i++ {
		if i < len(rest) {
			switch rest[i] {
			case '\\':
				i++
				continue
			case '"':
				inQuote = !inQuote
				continue
			case ',':
				if inQuote {
					continue
				}
			default:
				continue
			}
		}
		if name, _, ok := strings.Cut(rest[start:min(i, len(rest))], "="); ok {
			keys[name] = true
		}
		start = i + 1
	}
	return keys
}

func encode(f fixture.File) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Code generated by scripts/genfixture; DO NOT EDIT.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
