package beacon

import "reflect"

// Call invokes a listener's resolved method with the given arguments.
type Call func(args ...any) error

// Transform fully controls how a listener's method is invoked. It
// receives the defaulted target, the resolved method as a Call, and the
// firing arguments; when a transform is present the dispatcher does not
// invoke the method itself.
type Transform func(target any, method Call, args []any) error

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// bindMethod resolves m against target and returns a Call that invokes
// it. Named methods resolve here, at invocation time: first as a real
// method, then as an exported func-typed field, so reassigning such a
// field between fires changes what the next fire runs.
func bindMethod(event string, target any, m Method) (Call, error) {
	fail := func(err error) (Call, error) {
		return nil, &InvocationError{Event: event, Method: m.String(), Err: err}
	}

	switch m.kind {
	case methodDirect, methodKeyed:
		fv := reflect.ValueOf(m.fn)
		if fv.Kind() != reflect.Func || fv.IsNil() {
			return fail(ErrNotCallable)
		}
		switch f := m.fn.(type) {
		case func():
			return func(...any) error { f(); return nil }, nil
		case func() error:
			return func(...any) error { return f() }, nil
		case func(...any):
			return func(args ...any) error { f(args...); return nil }, nil
		case func(...any) error:
			return Call(f), nil
		case Call:
			return f, nil
		}
		return reflectCall(event, m, fv), nil

	case methodNamed:
		fv, ok := methodByName(target, m.name)
		if !ok {
			return fail(ErrMethodNotFound)
		}
		return reflectCall(event, m, fv), nil

	default:
		return fail(ErrNotCallable)
	}
}

// methodByName resolves name on target: a bound method first, then an
// exported func-typed struct field.
func methodByName(target any, name string) (reflect.Value, bool) {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() {
		return reflect.Value{}, false
	}
	if mv := rv.MethodByName(name); mv.IsValid() {
		return mv, true
	}
	sv := rv
	for sv.Kind() == reflect.Pointer {
		if sv.IsNil() {
			return reflect.Value{}, false
		}
		sv = sv.Elem()
	}
	if sv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	fv := sv.FieldByName(name)
	if !fv.IsValid() || !fv.CanInterface() || fv.Kind() != reflect.Func || fv.IsNil() {
		return reflect.Value{}, false
	}
	return fv, true
}

// reflectCall builds a Call around an arbitrary func shape. Arguments
// match positionally; arity and assignability failures surface as
// ErrSignatureMismatch. When the func's last result is an error, it
// becomes the Call's error.
func reflectCall(event string, m Method, fv reflect.Value) Call {
	return func(args ...any) error {
		ft := fv.Type()
		in, err := conformArgs(ft, args)
		if err != nil {
			return &InvocationError{Event: event, Method: m.String(), Err: err}
		}
		out := fv.Call(in)
		if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errorType {
			if ev := out[n-1]; !ev.IsNil() {
				return ev.Interface().(error)
			}
		}
		return nil
	}
}

// conformArgs builds the reflect argument list for a func of type ft.
func conformArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, ErrSignatureMismatch
		}
	} else if len(args) != fixed {
		return nil, ErrSignatureMismatch
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := ft.In(min(i, fixed))
		if i >= fixed {
			want = want.Elem()
		}
		av, err := conformArg(arg, want)
		if err != nil {
			return nil, err
		}
		in[i] = av
	}
	return in, nil
}

func conformArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch want.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, ErrSignatureMismatch
	}
	av := reflect.ValueOf(arg)
	if !av.Type().AssignableTo(want) {
		return reflect.Value{}, ErrSignatureMismatch
	}
	return av, nil
}
