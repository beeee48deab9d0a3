package oscquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grandcat/zeroconf"

	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/trace"
)

const (
	ServiceOSCJSON = "_oscjson._tcp"
	ServiceOSC     = "_osc._udp"
	domain         = "local."

	shutdownTimeout = 2 * time.Second
)

// InstanceName is the advertised name for a control socket on oscPort.
func InstanceName(oscPort int) string {
	return fmt.Sprintf("VRCSubs-%d", oscPort)
}

// HostInfo is the response to GET /?HOST_INFO.
type HostInfo struct {
	Name         string          `json:"NAME"`
	Extensions   map[string]bool `json:"EXTENSIONS"`
	OSCIP        string          `json:"OSC_IP"`
	OSCPort      int             `json:"OSC_PORT"`
	OSCTransport string          `json:"OSC_TRANSPORT"`
}

// Service serves the OSCQuery HTTP surface and registers it with mDNS.
type Service struct {
	info     HostInfo
	root     *Node
	listener net.Listener
	http     *http.Server
	mdns     []*zeroconf.Server
}

// Listen binds the OSCQuery HTTP listener on a free loopback port.
func Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeControlBindFailed, "bind oscquery listener")
	}
	return ln, nil
}

// New creates a service describing the control socket at oscPort.
func New(ln net.Listener, oscPort int, params []Param) *Service {
	s := &Service{
		info: HostInfo{
			Name:         InstanceName(oscPort),
			Extensions:   map[string]bool{"ACCESS": true, "VALUE": false, "DESCRIPTION": true},
			OSCIP:        "127.0.0.1",
			OSCPort:      oscPort,
			OSCTransport: "UDP",
		},
		root:     BuildTree(params),
		listener: ln,
	}
	s.http = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	return s
}

// HTTPPort returns the bound HTTP port.
func (s *Service) HTTPPort() int {
	if a, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

// Handler returns the OSCQuery router.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(trace.Middleware)
	r.Get("/*", s.handleQuery)
	return r
}

func (s *Service) handleQuery(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.URL.Query()["HOST_INFO"]; ok {
		writeJSON(w, s.info)
		return
	}
	node, ok := s.root.Lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, node)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("oscquery write failed", "error", err)
	}
}

// Serve advertises the service and serves HTTP until ctx is done.
// Advertisement failures are logged; the OSC socket keeps working without them.
func (s *Service) Serve(ctx context.Context) error {
	s.advertise()
	defer s.withdraw()

	errCh := make(chan error, 1)
	go func() { errCh <- s.http.Serve(s.listener) }()
	slog.Info("oscquery running", "name", s.info.Name, "http_port", s.HTTPPort(), "osc_port", s.info.OSCPort)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.CodeInternal, "oscquery http server")
	}
}

func (s *Service) advertise() {
	for _, svc := range []struct {
		name string
		port int
	}{
		{ServiceOSCJSON, s.HTTPPort()},
		{ServiceOSC, s.info.OSCPort},
	} {
		srv, err := zeroconf.Register(s.info.Name, svc.name, domain, svc.port, []string{"txtvers=1"}, nil)
		if err != nil {
			slog.Warn("service advertisement failed", "service", svc.name, "error", err)
			continue
		}
		s.mdns = append(s.mdns, srv)
	}
}

func (s *Service) withdraw() {
	for _, srv := range s.mdns {
		srv.Shutdown()
	}
	s.mdns = nil
}
