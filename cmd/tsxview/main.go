package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"tilekit/internal/preview"
	"tilekit/internal/server"
)

const (
	defaultAddr    = ":2222"
	defaultHostKey = "host_key"
	defaultAssets  = "assets/tilesets"
)

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	hostKeyPath := envOr("TSXVIEW_HOSTKEY", defaultHostKey)
	if err := ensureHostKey(hostKeyPath); err != nil {
		log.Fatalf("Host key error: %v", err)
	}

	assets := envOr("TSXVIEW_ASSETS", defaultAssets)
	bundle, err := preview.LoadBundle(assets)
	if err != nil {
		log.Fatalf("Failed to load tilesets from %s: %v", assets, err)
	}
	for i := 0; i < bundle.Len(); i++ {
		e := bundle.At(i)
		terrain := "no terrain"
		if e.Layout != nil {
			terrain = "layout " + e.Layout.Name
		}
		log.Printf("Tileset loaded: %s (%s tiles, %d animated, %s)",
			e.Tileset.Name, humanize.Comma(int64(e.Tileset.TileCount)), len(e.Animator.Tiles()), terrain)
	}

	hub := preview.NewHub(bundle)
	go hub.Run()
	defer hub.Stop()

	listenAddr := defaultAddr
	if port := os.Getenv("PORT"); port != "" {
		listenAddr = ":" + port
	}
	sshServer := server.NewSSHServer(listenAddr, hostKeyPath, hub)
	log.Printf("Starting tsxview, connect with: ssh -p %s %s@localhost", listenAddr[1:], bundle.Names()[0])
	if err := sshServer.Start(); err != nil {
		log.Fatalf("SSH server error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ensureHostKey(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // key already exists
	}

	log.Println("Generating new host key...")
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return pem.Encode(f, &pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})
}
