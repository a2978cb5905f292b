// Command tslc is the TSL shader compiler CLI.
//
// Usage:
//
//	tslc [options] <input.tsl>
//
// Examples:
//
//	tslc shader.tsl                  # Parse, lower and validate
//	tslc -verify shader.tsl          # Also run structural verification
//	tslc -global x:int shader.tsl    # Declare a TSL-global field layout
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/tsl-lang/tsl/compiler"
	"github.com/tsl-lang/tsl/system"
	"github.com/tsl-lang/tsl/types"
)

var (
	verify      = flag.Bool("verify", false, "run structural verification before reporting success")
	globalSpec  = flag.String("global", "", "comma-separated name:type pairs for the TSL-global layout, e.g. intensity:float,count:int")
	versionFlag = flag.Bool("version", false, "print version")
)

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("tslc version %s\n", version())
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	inputPath := args[0]
	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	layout, err := parseGlobalSpec(*globalSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sys := system.NewShadingSystem()
	sys.RegisterCallback(system.NewDefaultHostCallback())
	ctx := sys.MakeShadingContext()

	unit := ctx.BeginShaderUnitTemplate(inputPath)
	unit.AllowVerify(*verify)
	if len(layout) > 0 {
		if err := unit.RegisterTSLGlobal(layout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := unit.CompileShaderSource(string(source)); err != nil {
		fmt.Fprintf(os.Stderr, "Compilation error: %v\n", err)
		os.Exit(1)
	}

	sealed, err := ctx.EndShaderUnitTemplate(unit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	inst := sealed.MakeShaderInstance(nil)
	status := ctx.ResolveShaderInstance(inst)
	if status != system.Succeed {
		fmt.Fprintf(os.Stderr, "Resolution failed: %s: %v\n", status, inst.LastError())
		os.Exit(1)
	}

	ep, err := inst.GetFunction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: OK\n", inputPath)
	fmt.Println("Exposed arguments:")
	for _, p := range ep.Params() {
		dir := "in"
		if p.IsOutput() {
			dir = "out"
		}
		fmt.Printf("  %-3s %-20s %s\n", dir, p.Name, p.Type)
	}
}

// parseGlobalSpec turns "name:type,name:type" into a GlobalLayoutField
// slice. Recognised type names are the scalar and float3 TSL types.
func parseGlobalSpec(spec string) ([]compiler.GlobalLayoutField, error) {
	if spec == "" {
		return nil, nil
	}
	var fields []compiler.GlobalLayoutField
	for _, part := range strings.Split(spec, ",") {
		nameType := strings.SplitN(part, ":", 2)
		if len(nameType) != 2 {
			return nil, fmt.Errorf("invalid -global entry %q, want name:type", part)
		}
		dt, err := dataTypeByName(strings.TrimSpace(nameType[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid -global entry %q: %w", part, err)
		}
		fields = append(fields, compiler.GlobalLayoutField{Name: strings.TrimSpace(nameType[0]), Type: dt})
	}
	return fields, nil
}

func dataTypeByName(name string) (types.DataType, error) {
	switch name {
	case "int":
		return types.Int, nil
	case "float":
		return types.Float, nil
	case "double":
		return types.Double, nil
	case "bool":
		return types.Bool, nil
	case "float3":
		return types.Float3, nil
	default:
		return types.DataType{}, fmt.Errorf("unrecognized type %q", name)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: tslc [options] <input.tsl>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  tslc shader.tsl                  Parse, lower and validate\n")
	fmt.Fprintf(os.Stderr, "  tslc -verify shader.tsl          Also run structural verification\n")
}
