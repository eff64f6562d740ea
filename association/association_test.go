package association

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dcmnet/ul/dulsm"
	"github.com/dcmnet/ul/presentation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const verificationTransferSyntax = "1.2.840.10008.1.2"

func testOptions() dulsm.Options {
	return dulsm.Options{ACSETimeout: 2 * time.Second, DIMSETimeout: 2 * time.Second}
}

func verificationContexts() []presentation.Proposal {
	return []presentation.Proposal{{AbstractSyntax: verificationSOPClassUID, TransferSyntaxes: []string{verificationTransferSyntax}}}
}

// dialPair wires a requestor Association to an acceptor Association over
// a loopback TCP connection, with an accept loop spun up by a real listener so
// dulsm's conn.RemoteAddr()/net.Conn semantics apply as they would live.
func dialPair(t *testing.T, serverCfg, clientCfg Config) (*Association, *Association) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	serverCh := make(chan *Association, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		serverCh <- Accept(conn, serverCfg)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Associate(ctx, "tcp", ln.Addr().String(), "ACCEPTOR", clientCfg)
	require.NoError(t, err)

	server := <-serverCh
	select {
	case <-server.establishDone:
	case <-time.After(2 * time.Second):
		t.Fatal("server association never established")
	}
	return client, server
}

func TestSendCEcho(t *testing.T) {
	serverCfg := Config{LocalAETitle: "ACCEPTOR", SupportedContexts: verificationContexts(), Options: testOptions()}
	clientCfg := Config{LocalAETitle: "REQUESTOR", SupportedContexts: verificationContexts(), Options: testOptions()}
	client, server := dialPair(t, serverCfg, clientCfg)
	defer server.Abort()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := client.SendCEcho(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, status.Status)

	require.NoError(t, client.Release(ctx))
}

func TestAssociateRejectedOnUnknownCalledAET(t *testing.T) {
	serverCfg := Config{LocalAETitle: "REALAET", SupportedContexts: verificationContexts(), Options: testOptions()}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		Accept(conn, serverCfg)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	clientCfg := Config{LocalAETitle: "REQUESTOR", SupportedContexts: verificationContexts(), Options: testOptions()}
	_, err = Associate(ctx, "tcp", ln.Addr().String(), "WRONGAET", clientCfg)
	require.Error(t, err)
}
