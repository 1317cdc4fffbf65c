package service

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Service exposes the stats and metrics of one or more nodes over HTTP. It is
// never on the protocol path: nodes keep talking over their own streams.
type Service struct {
	sync.Mutex

	bindAddress string
	nodes       map[string]*node.Node
	registry    *prometheus.Registry
	mux         *http.ServeMux
	server      *http.Server
	listener    net.Listener
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		nodes:       make(map[string]*node.Node),
		registry:    prometheus.NewRegistry(),
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.server = &http.Server{
		Addr:    bindAddress,
		Handler: service.mux,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering murmur API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/nodes", s.makeHandler(s.GetNodes))
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Register adds a node under name. Its metrics are exported with a node
// label set to name, or without one when name is empty.
func (s *Service) Register(name string, n *node.Node) error {
	s.Lock()
	defer s.Unlock()

	var reg prometheus.Registerer = s.registry
	if name != "" {
		reg = prometheus.WrapRegistererWith(prometheus.Labels{"node": name}, s.registry)
	}

	for _, c := range n.Metrics().Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	s.nodes[name] = n
	return nil
}

// Handler returns the handler serving the API, for embedding in another
// server.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Listen binds the service address without serving it yet.
func (s *Service) Listen() error {
	s.Lock()
	defer s.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.bindAddress)
	if err != nil {
		return err
	}
	s.listener = ln

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Service) Addr() net.Addr {
	s.Lock()
	defer s.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve serves the API on the listener, calling Listen first if needed. This
// is a blocking call which returns nil after Close, even when Close came
// first.
func (s *Service) Serve() error {
	if err := s.Listen(); err != nil {
		s.logger.Error(err)
		return err
	}

	s.Lock()
	ln := s.listener
	s.Unlock()

	s.logger.WithField("bind_address", ln.Addr().String()).Debug("Serving murmur API")

	err := s.server.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	if err != nil {
		s.logger.Error(err)
	}
	return err
}

// Close stops the server and releases the listener.
func (s *Service) Close() error {
	err := s.server.Shutdown(context.Background())

	s.Lock()
	if s.listener != nil {
		// already closed if Serve ran
		s.listener.Close()
	}
	s.Unlock()

	return err
}

// GetStats returns the stats of every registered node, keyed by name.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]map[string]string, len(s.nodes))
	for name, n := range s.nodes {
		stats[name] = n.GetStats()
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetNodes returns the registered names and the ids the nodes received in
// their handshake.
func (s *Service) GetNodes(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name  string `json:"name"`
		ID    string `json:"id"`
		State string `json:"state"`
	}

	res := make([]entry, 0, len(s.nodes))
	for name, n := range s.nodes {
		res = append(res, entry{
			Name:  name,
			ID:    n.ID(),
			State: n.GetState().String(),
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(res)
}
