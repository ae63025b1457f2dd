package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/houndview/pkg/httputil"
)

func ExampleRetry() {
	calls := 0
	err := httputil.Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return httputil.Retryable(errors.New("status 503"))
		}
		return nil
	})
	fmt.Println("calls:", calls, "err:", err)
	// Output:
	// calls: 3 err: <nil>
}

func ExampleRetry_permanent() {
	calls := 0
	err := httputil.Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return errors.New("status 400")
	})
	fmt.Println("calls:", calls, "err:", err)
	// Output:
	// calls: 1 err: status 400
}
