package beacon_test

import (
	"fmt"

	"github.com/dshills/beacon"
)

type document struct {
	title string
}

type mailer struct{}

func (mailer) Notify(args ...any) error {
	fmt.Println("mail:", args[0])
	return nil
}

func Example() {
	doc := &document{title: "notes"}
	defer beacon.Forget(doc)

	beacon.Register(doc, "saved", nil, func(...any) {
		fmt.Println("saved")
	}, nil)
	beacon.Fire(doc, "saved")
	// Output:
	// saved
}

func ExampleDispatcher_Fire() {
	d := beacon.NewDispatcher()
	doc := &document{}

	d.Register(doc, "saved", nil, func(args ...any) {
		fmt.Println("saved:", args[0])
	}, nil)
	d.Fire(doc, "saved", "draft-1")
	// Output:
	// saved: draft-1
}

func ExampleDispatcher_Suspend() {
	d := beacon.NewDispatcher()
	doc := &document{}

	d.Register(doc, "changed", nil, beacon.Keyed("audit", func(...any) {
		fmt.Println("audit ran")
	}), nil)

	d.Suspend(doc, "changed", nil, beacon.Keyed("audit", nil), func(any) error {
		d.Fire(doc, "changed")
		fmt.Println("quiet update")
		return nil
	})
	d.Fire(doc, "changed")
	// Output:
	// quiet update
	// audit ran
}

func ExampleDispatcher_DeferFire() {
	d := beacon.NewDispatcher()
	doc := &document{}

	d.Register(doc, "indexed", nil, func(args ...any) {
		fmt.Println("indexing", args[0])
	}, nil)

	replay, _ := d.DeferFire(doc, "indexed", "v2")
	fmt.Println("batch closed")
	replay()
	// Output:
	// batch closed
	// indexing v2
}

func ExampleDispatcher_Inherit() {
	d := beacon.NewDispatcher()
	proto := &document{title: "template"}

	d.Register(proto, "saved", nil, func(...any) {
		fmt.Println("base hook")
	}, nil)

	draft := &document{title: "draft"}
	d.Inherit(draft, proto)
	d.Fire(draft, "saved")
	// Output:
	// base hook
}

func ExampleNamed() {
	d := beacon.NewDispatcher()
	doc := &document{}

	d.Register(doc, "published", mailer{}, "Notify", nil)
	d.Fire(doc, "published", "issue 7")
	// Output:
	// mail: issue 7
}
