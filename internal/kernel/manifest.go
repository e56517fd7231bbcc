package kernel

import (
	"fmt"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/sxslang/sxs/internal/value"
)

// interpretManifest runs a kernel.sxs root value under the restricted
// meta-interpreter spec §4.K requires: the only callables are
// define-kernel, define-function, and define-form, and their effect is
// purely to populate desc. The manifest is either a single DATUM whose
// inner list begins with define-kernel, or a BRACKET_LIST of such
// DATUMs possibly mixed with define-form DATUMs (spec §6.2).
func interpretManifest(root value.Value, desc *Descriptor) error {
	switch root.Type() {
	case value.TagDatum:
		return interpretDatum(root, desc)
	case value.TagBracketList:
		items, _ := root.AsList()
		for _, item := range items {
			if item.Type() != value.TagDatum {
				return fmt.Errorf("kernel manifest: top-level list must contain only datums, got %s", item.Type())
			}
			if err := interpretDatum(item, desc); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("kernel manifest: expected a datum or a bracket-list of datums, got %s", root.Type())
	}
}

func interpretDatum(d value.Value, desc *Descriptor) error {
	inner, _ := d.Inner()
	if inner.Type() != value.TagParenList {
		return fmt.Errorf("kernel manifest: datum must wrap a paren-list form")
	}
	items, _ := inner.AsList()
	if len(items) == 0 {
		return fmt.Errorf("kernel manifest: empty form")
	}
	head, ok := items[0].AsSymbol()
	if !ok {
		return fmt.Errorf("kernel manifest: form head must be a symbol")
	}
	args := items[1:]
	switch head {
	case "define-kernel":
		return defineKernel(args, desc)
	case "define-form":
		return defineForm(args, desc)
	case "define-function":
		return fmt.Errorf("kernel manifest: define-function must appear nested inside define-kernel")
	default:
		return fmt.Errorf("kernel manifest: unrecognized manifest form %q (the restricted meta-interpreter only allows define-kernel, define-function, define-form)", head)
	}
}

func defineKernel(args []value.Value, desc *Descriptor) error {
	if len(args) < 2 {
		return fmt.Errorf("kernel manifest: define-kernel requires at least (name dylib-path)")
	}
	name, ok := args[0].AsSymbol()
	if !ok {
		return fmt.Errorf("kernel manifest: define-kernel's first argument must be a symbol")
	}
	dylib, ok := args[1].AsString()
	if !ok {
		return fmt.Errorf("kernel manifest: define-kernel's second argument must be a string")
	}
	desc.Name = name
	desc.DylibFilename = dylib

	if len(args) >= 3 && args[2].Type() == value.TagBracketList {
		fns, _ := args[2].AsList()
		for _, f := range fns {
			if err := defineFunctionNested(f, desc); err != nil {
				return err
			}
		}
	}

	// Supplemental ARGS extension: a trailing string is shell-style
	// static configuration handed to the kernel out-of-band from the
	// ABI proper (original_source has no analog; this is additive).
	if len(args) >= 4 {
		argsStr, ok := args[3].AsString()
		if !ok {
			return fmt.Errorf("kernel manifest: define-kernel's fourth argument, if present, must be an ARGS string")
		}
		parsed, err := shellquote.Split(argsStr)
		if err != nil {
			return fmt.Errorf("kernel manifest: malformed ARGS string: %w", err)
		}
		desc.Args = parsed
	}
	return nil
}

func defineFunctionNested(f value.Value, desc *Descriptor) error {
	if f.Type() != value.TagParenList {
		return fmt.Errorf("kernel manifest: define-kernel's function list must contain paren-list forms")
	}
	items, _ := f.AsList()
	if len(items) == 0 {
		return fmt.Errorf("kernel manifest: empty nested form")
	}
	head, ok := items[0].AsSymbol()
	if !ok || head != "define-function" {
		return fmt.Errorf("kernel manifest: expected define-function, got %v", items[0])
	}
	return defineFunction(items[1:], desc)
}

func defineFunction(args []value.Value, desc *Descriptor) error {
	if len(args) != 3 {
		return fmt.Errorf("kernel manifest: define-function expects (name (params) :ret), got %d arguments", len(args))
	}
	fname, ok := args[0].AsSymbol()
	if !ok {
		return fmt.Errorf("kernel manifest: define-function's name must be a symbol")
	}
	if args[1].Type() != value.TagParenList {
		return fmt.Errorf("kernel manifest: define-function's parameter list must be a paren list")
	}
	paramItems, _ := args[1].AsList()
	if len(paramItems)%2 != 0 {
		return fmt.Errorf("kernel manifest: define-function %q parameter list must alternate name and type", fname)
	}
	decl := &FunctionDecl{Name: fname}
	for i := 0; i < len(paramItems); i += 2 {
		pname, ok := paramItems[i].AsSymbol()
		if !ok {
			return fmt.Errorf("kernel manifest: define-function %q parameter name must be a symbol", fname)
		}
		ptype, ok := paramItems[i+1].AsSymbol()
		if !ok {
			return fmt.Errorf("kernel manifest: define-function %q parameter type must be a type symbol", fname)
		}
		decl.ParamNames = append(decl.ParamNames, pname)
		decl.ParamTypes = append(decl.ParamTypes, ptype)
		if len(ptype) >= 2 && ptype[len(ptype)-2:] == ".." {
			decl.Variadic = true
		}
	}
	ret, ok := args[2].AsSymbol()
	if !ok {
		return fmt.Errorf("kernel manifest: define-function %q return type must be a type symbol", fname)
	}
	decl.ReturnType = ret
	desc.DeclaredFunctions[fname] = decl
	return nil
}

func defineForm(args []value.Value, desc *Descriptor) error {
	if len(args) != 2 {
		return fmt.Errorf("kernel manifest: define-form expects (name { :t1 :t2 ... }), got %d arguments", len(args))
	}
	name, ok := args[0].AsSymbol()
	if !ok {
		return fmt.Errorf("kernel manifest: define-form's name must be a symbol")
	}
	if args[1].Type() != value.TagBraceList {
		return fmt.Errorf("kernel manifest: define-form's elements must be a brace list")
	}
	elemItems, _ := args[1].AsList()
	decl := &FormDecl{Name: name}
	for _, e := range elemItems {
		sym, ok := e.AsSymbol()
		if !ok {
			return fmt.Errorf("kernel manifest: define-form %q element must be a type symbol", name)
		}
		decl.Elements = append(decl.Elements, sym)
	}
	desc.DeclaredForms[name] = decl
	return nil
}
