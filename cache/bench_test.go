package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func BenchmarkMemoryCache_Get_Hit(b *testing.B) {
	c := NewMemoryCache()
	ctx := context.Background()
	_ = c.Set(ctx, "key", []byte("value"), time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "key")
	}
}

func BenchmarkMemoryCache_Set(b *testing.B) {
	c := NewMemoryCache()
	ctx := context.Background()
	value := []byte("test value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, fmt.Sprintf("key-%d", i), value, time.Hour)
	}
}

func BenchmarkFileCache_Get_Hit(b *testing.B) {
	c, err := NewFileCache(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	_ = c.Set(ctx, "key", []byte("value"), time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "key")
	}
}

func BenchmarkFileCache_Set_SameKey(b *testing.B) {
	c, err := NewFileCache(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	value := []byte("test value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, "same-key", value, time.Hour)
	}
}

func BenchmarkKeyer(b *testing.B) {
	values := []string{"42", "published", "en", "2024-01-01"}
	for _, k := range []Keyer{NewDefaultKeyer(), NewXXHashKeyer()} {
		b.Run(fmt.Sprintf("%T", k), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = k.Fingerprint(values)
			}
		})
	}
}
