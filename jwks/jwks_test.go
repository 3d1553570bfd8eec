package jwks_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	auth "github.com/loopchat/auth-go"
	"github.com/loopchat/auth-go/jwks"
)

func keySetServer(t *testing.T, kid string, pub *rsa.PublicKey, fetches *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches != nil {
			fetches.Add(1)
		}
		resp := map[string]interface{}{
			"keys": []map[string]interface{}{
				{
					"kty": "RSA",
					"use": "sig",
					"kid": kid,
					"alg": "RS256",
					"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
				},
				// Non-RSA entries must be filtered out, not served.
				{"kty": "EC", "use": "sig", "kid": "ec-key"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestKeySet_FetchAndLookup(t *testing.T) {
	priv := newRSAKey(t)
	server := keySetServer(t, "key-1", &priv.PublicKey, nil)
	defer server.Close()

	cache := jwks.NewCache(server.URL)

	ks, err := cache.KeySet(context.Background())
	if err != nil {
		t.Fatalf("KeySet() unexpected error: %v", err)
	}
	if len(ks.Keys) != 1 {
		t.Fatalf("len(Keys) = %d, want 1 (non-RSA entries filtered)", len(ks.Keys))
	}
	if ks.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}

	key, ok := ks.Key("key-1")
	if !ok {
		t.Fatal("Key(key-1) not found")
	}
	pub, err := key.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey() error: %v", err)
	}
	if pub.N.Cmp(priv.PublicKey.N) != 0 || pub.E != priv.PublicKey.E {
		t.Error("decoded public key does not match served key")
	}

	if _, ok := ks.Key("absent"); ok {
		t.Error("Key(absent) should not be found")
	}
}

func TestKeySet_CachedForProcessLifetime(t *testing.T) {
	var fetches atomic.Int32
	priv := newRSAKey(t)
	server := keySetServer(t, "key-1", &priv.PublicKey, &fetches)
	defer server.Close()

	cache := jwks.NewCache(server.URL)

	for i := 0; i < 10; i++ {
		if _, err := cache.KeySet(context.Background()); err != nil {
			t.Fatalf("KeySet() call %d: %v", i, err)
		}
	}

	if n := fetches.Load(); n != 1 {
		t.Errorf("fetch count = %d, want 1 (cached indefinitely)", n)
	}
}

func TestInvalidate_TriggersRefetch(t *testing.T) {
	var fetches atomic.Int32
	priv := newRSAKey(t)
	server := keySetServer(t, "key-1", &priv.PublicKey, &fetches)
	defer server.Close()

	cache := jwks.NewCache(server.URL)

	if _, err := cache.KeySet(context.Background()); err != nil {
		t.Fatal(err)
	}
	cache.Invalidate()
	if _, err := cache.KeySet(context.Background()); err != nil {
		t.Fatal(err)
	}

	if n := fetches.Load(); n != 2 {
		t.Errorf("fetch count = %d, want 2 after Invalidate", n)
	}
}

func TestKeySet_UpstreamUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	server.Close() // unreachable endpoint

	cache := jwks.NewCache(server.URL)

	_, err := cache.KeySet(context.Background())
	if err == nil {
		t.Fatal("KeySet() expected error for unreachable provider")
	}
	if !errors.Is(err, auth.ErrUpstreamUnavailable) {
		t.Errorf("error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestKeySet_EmptyDocumentIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"keys": []any{}})
	}))
	defer server.Close()

	cache := jwks.NewCache(server.URL)

	_, err := cache.KeySet(context.Background())
	if !errors.Is(err, auth.ErrUpstreamUnavailable) {
		t.Errorf("error = %v, want ErrUpstreamUnavailable for empty key set", err)
	}
}

func TestKeySet_FailedFetchRetriesOnNextCall(t *testing.T) {
	var fetches atomic.Int32
	priv := newRSAKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		resp := map[string]interface{}{
			"keys": []map[string]interface{}{{
				"kty": "RSA",
				"kid": "key-1",
				"n":   base64.RawURLEncoding.EncodeToString(priv.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(priv.PublicKey.E)).Bytes()),
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cache := jwks.NewCache(server.URL)

	if _, err := cache.KeySet(context.Background()); !errors.Is(err, auth.ErrUpstreamUnavailable) {
		t.Fatalf("first call: error = %v, want ErrUpstreamUnavailable", err)
	}
	// Failure is not cached: the normal miss path retries.
	if _, err := cache.KeySet(context.Background()); err != nil {
		t.Fatalf("second call: unexpected error: %v", err)
	}
}

func TestKeySet_ConcurrentReaders(t *testing.T) {
	var fetches atomic.Int32
	priv := newRSAKey(t)
	server := keySetServer(t, "key-1", &priv.PublicKey, &fetches)
	defer server.Close()

	cache := jwks.NewCache(server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ks, err := cache.KeySet(context.Background())
			if err != nil {
				t.Errorf("KeySet() error: %v", err)
				return
			}
			// Readers must always see a complete set.
			if _, ok := ks.Key("key-1"); !ok {
				t.Error("reader observed key set without key-1")
			}
		}()
	}
	wg.Wait()

	// Concurrent misses coalesce into one flight.
	if n := fetches.Load(); n != 1 {
		t.Errorf("fetch count = %d, want 1", n)
	}
}
