package security

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ErrInvalidInput wraps every rejection made by the hooks AttachRecursive installs.
var ErrInvalidInput = errors.New("invalid input")

// Limits bounds user-supplied strings: CLI arguments, flag values and config fields.
type Limits struct {
	MaxString int
	MaxPath   int
	AllowNL   bool
	AllowTab  bool
}

// DefaultLimits suits command-line input: generous lengths, no newlines.
func DefaultLimits() Limits {
	return Limits{
		MaxString: 1024,
		MaxPath:   4096,
	}
}

// ValidateString rejects invalid UTF-8, NUL bytes, over-long values and control runes.
func ValidateString(name, s string, lim Limits) error {
	return checkString(name, s, lim.MaxString, lim)
}

// ValidatePath is ValidateString with the path length limit.
func ValidatePath(name, s string, lim Limits) error {
	return checkString(name, s, lim.MaxPath, lim)
}

func checkString(name, s string, max int, lim Limits) error {
	if s == "" {
		return nil
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%s: invalid UTF-8", name)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%s: contains NUL byte", name)
	}
	if n := utf8.RuneCountInString(s); max > 0 && n > max {
		return fmt.Errorf("%s: too long (%d > %d)", name, n, max)
	}
	for _, r := range s {
		switch {
		case r == '\n' && lim.AllowNL, r == '\t' && lim.AllowTab:
			continue
		case !unicode.IsPrint(r):
			return fmt.Errorf("%s: contains non-printable/control runes", name)
		}
	}
	return nil
}

func looksLikePath(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "path") || strings.Contains(n, "file") ||
		strings.Contains(n, "dir") || strings.Contains(n, "keyring")
}

// ValidateStructStrings walks every exported string reachable from obj (struct fields,
// maps, slices, pointers) and validates it. Fields whose name mentions a path, file, dir
// or keyring use the path limit.
func ValidateStructStrings(obj any, lim Limits) error {
	return walk(reflect.ValueOf(obj), "config", lim, map[uintptr]bool{})
}

func walk(v reflect.Value, at string, lim Limits, seen map[uintptr]bool) error {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || seen[v.Pointer()] {
			return nil
		}
		seen[v.Pointer()] = true
		return walk(v.Elem(), at, lim, seen)
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := walk(v.Field(i), at+"."+t.Field(i).Name, lim, seen); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := walk(iter.Value(), fmt.Sprintf("%s[%v]", at, iter.Key().Interface()), lim, seen); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := walk(v.Index(i), fmt.Sprintf("%s[%d]", at, i), lim, seen); err != nil {
				return err
			}
		}
	case reflect.String:
		if looksLikePath(at) {
			return ValidatePath(at, v.String(), lim)
		}
		return ValidateString(at, v.String(), lim)
	}
	return nil
}

// AttachRecursive installs argument and flag validation on root and every subcommand,
// chained in front of any existing PersistentPreRunE.
func AttachRecursive(root *cobra.Command, lim Limits) {
	prev := root.PersistentPreRunE
	root.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		if err := validateFlagsAndArgs(c, args, lim); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if prev != nil {
			return prev(c, args)
		}
		return nil
	}
	for _, c := range root.Commands() {
		AttachRecursive(c, lim)
	}
}

func validateFlagsAndArgs(cmd *cobra.Command, args []string, lim Limits) error {
	for i, a := range args {
		if err := ValidateString(fmt.Sprintf("arg[%d]", i), a, lim); err != nil {
			return err
		}
	}

	var firstErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if firstErr != nil {
			return
		}
		check := ValidateString
		if looksLikePath(f.Name) {
			check = ValidatePath
		}
		name := "flag --" + f.Name

		switch f.Value.Type() {
		case "string":
			firstErr = check(name, f.Value.String(), lim)
		case "stringSlice", "stringArray":
			sv, ok := f.Value.(pflag.SliceValue)
			if !ok {
				return
			}
			for i, s := range sv.GetSlice() {
				if firstErr = check(fmt.Sprintf("%s[%d]", name, i), s, lim); firstErr != nil {
					return
				}
			}
		}
	})
	return firstErr
}
