package cache_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jonwraymond/restops/cache"
)

func ExampleNewFileCache() {
	dir, _ := os.MkdirTemp("", "restops-example")
	defer os.RemoveAll(dir)

	c, err := cache.NewFileCache(dir)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	ctx := context.Background()

	_ = c.Set(ctx, "greeting", []byte("hello"), 5*time.Minute)

	value, ok := c.Get(ctx, "greeting")
	fmt.Println("found:", ok)
	fmt.Println("value:", string(value))
	// Output:
	// found: true
	// value: hello
}

func ExampleFileCache_Delete() {
	dir, _ := os.MkdirTemp("", "restops-example")
	defer os.RemoveAll(dir)

	c, _ := cache.NewFileCache(dir)
	ctx := context.Background()

	_ = c.Set(ctx, "to-delete", []byte("temporary"), time.Hour)
	fmt.Println("delete:", c.Delete(ctx, "to-delete"))

	// Deleting a missing key reports ErrNotFound.
	err := c.Delete(ctx, "to-delete")
	fmt.Println("missing is ErrNotFound:", errors.Is(err, cache.ErrNotFound))
	// Output:
	// delete: <nil>
	// missing is ErrNotFound: true
}

func ExampleGetOrDefault() {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	fmt.Println(string(cache.GetOrDefault(ctx, c, "missing", []byte("fallback"))))
	// Output:
	// fallback
}

func ExampleMemoryCache_GetMultiple() {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	_ = c.SetMultiple(ctx, []cache.Item{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2")},
	}, time.Hour)

	for _, it := range c.GetMultiple(ctx, []string{"a", "b", "c"}, []byte("-")) {
		fmt.Printf("%s=%s\n", it.Key, it.Value)
	}
	// Output:
	// a=1
	// b=2
	// c=-
}

func ExampleNewDefaultKeyer() {
	keyer := cache.NewDefaultKeyer()

	key := keyer.Fingerprint([]string{"42", "draft"})
	fmt.Println("length:", len(key))
	fmt.Println("stable:", key == keyer.Fingerprint([]string{"42", "draft"}))
	fmt.Println("order matters:", key != keyer.Fingerprint([]string{"draft", "42"}))
	// Output:
	// length: 32
	// stable: true
	// order matters: true
}

func ExamplePolicy_EffectiveTTL() {
	policy := cache.Policy{DefaultTTL: 5 * time.Minute, MaxTTL: time.Hour}

	fmt.Println(policy.EffectiveTTL(0))
	fmt.Println(policy.EffectiveTTL(10 * time.Minute))
	fmt.Println(policy.EffectiveTTL(2 * time.Hour))
	// Output:
	// 5m0s
	// 10m0s
	// 1h0m0s
}
