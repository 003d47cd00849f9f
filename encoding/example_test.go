package encoding_test

import (
	"fmt"

	"github.com/mixpanel/carbon/encoding"
)

func ExampleSanitize() {
	fmt.Println(encoding.Sanitize(`Servers\Web 01/CPU_Load`, encoding.DefaultOptions()))
	// Output: servers.web_01.cpu_load
}

func ExampleFlatten() {
	callPrefix, fields, err := encoding.Flatten("disk", map[string]float64{"used": 0.75, "free": 0.25})
	if err != nil {
		panic(err)
	}
	fmt.Println(callPrefix)
	for _, f := range fields {
		fmt.Println(f.Name, f.Text)
	}
	// Output:
	// disk
	// free 0.25
	// used 0.75
}
