// Command speke-demo runs a complete SPEKE handshake and message exchange
// between two peers in a single process, using net.Pipe() in place of a
// real socket. In a real application, alice and bob would be separate
// processes talking over TCP.
package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jakub-w/speke-go/session"
	"github.com/jakub-w/speke-go/speke"
)

func main() {
	password := []byte("password123")
	if len(os.Args) > 1 {
		password = []byte(os.Args[1])
	}

	fmt.Println("SPEKE Protocol Demo")
	fmt.Println("===================")
	fmt.Printf("Using password: %s\n", string(password))

	if err := runDemo(password); err != nil {
		log.Fatalf("demo failed: %v", err)
	}
}

func runDemo(password []byte) error {
	aliceConn, bobConn := net.Pipe()

	// Alice and bob each get their own id counter: the engine's default is a
	// package-level singleton meant to number ids for one process, but here
	// both peers live in this one process, so sharing it would double-count
	// whichever side's id the other engine numbers via ProvideRemote.
	aliceEngine, err := speke.Create("alice", password, speke.Modp1024, speke.WithIDCounter(speke.NewIDCounter()))
	if err != nil {
		return fmt.Errorf("creating alice's engine: %w", err)
	}
	bobEngine, err := speke.Create("bob", password, speke.Modp1024, speke.WithIDCounter(speke.NewIDCounter()))
	if err != nil {
		return fmt.Errorf("creating bob's engine: %w", err)
	}

	alice := session.New(aliceConn, aliceEngine, session.Config{})
	bob := session.New(bobConn, bobEngine, session.Config{})
	defer alice.Close()
	defer bob.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	if err := bob.Start(func(payload []byte, s *session.Session) {
		fmt.Printf("bob received: %q\n", payload)
		wg.Done()
	}); err != nil {
		return fmt.Errorf("bob.Start: %w", err)
	}
	if err := alice.Start(nil); err != nil {
		return fmt.Errorf("alice.Start: %w", err)
	}

	if !waitForState(alice, func(s session.State) bool { return s == session.StateRunning || s.Terminal() }) ||
		!waitForState(bob, func(s session.State) bool { return s == session.StateRunning || s.Terminal() }) {
		return fmt.Errorf("handshake did not complete: alice=%s bob=%s", alice.GetState(), bob.GetState())
	}
	if alice.GetState() != session.StateRunning || bob.GetState() != session.StateRunning {
		return fmt.Errorf("handshake failed: alice=%s bob=%s", alice.GetState(), bob.GetState())
	}
	fmt.Println("handshake complete, both peers are RUNNING")

	key, err := aliceEngine.EncryptionKey()
	if err != nil {
		return fmt.Errorf("alice.EncryptionKey: %w", err)
	}
	fmt.Printf("shared encryption key: %s\n", hex.EncodeToString(key))

	payload := []byte("hello from alice")
	if err := alice.SendMessage(payload); err != nil {
		return fmt.Errorf("alice.SendMessage: %w", err)
	}
	wg.Wait()

	return nil
}

func waitForState(s *session.Session, done func(session.State) bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if done(s.GetState()) {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}
