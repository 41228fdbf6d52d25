// Package portal serves the captive portal: the UI assets, the network
// list and the credentials form of the provisioning session.
package portal

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"

	"github.com/dawnlite/portald/provisioner"
)

type Config struct {
	Provisioner *provisioner.Provisioner
	// Address is the portal's own address, the target of captive portal
	// detection redirects, e.g. 192.168.42.1.
	Address string
	// UiDir is the directory the portal UI assets are served from.
	UiDir  string
	Logger Logger
}

type Portal struct {
	provisioner *provisioner.Provisioner
	address     string
	router      *mux.Router
	server      *http.Server
	log         Logger
}

func New(config *Config) *Portal {
	p := &Portal{
		provisioner: config.Provisioner,
		address:     config.Address,
		router:      mux.NewRouter(),
	}

	if config.Logger != nil {
		p.log = config.Logger
	} else {
		p.log = noopLogger{}
	}

	p.router.Use(p.loggingMiddleware)

	p.router.Handle("/networks", p.handleGetNetworks()).Methods(http.MethodGet)

	// captive portal detection probes get bounced to the portal itself
	// so the client OS brings up the sign-in browser
	p.router.Handle("/hotspot-detect.html", p.handleCaptiveProbe()).Methods(http.MethodGet)
	p.router.Handle("/generate_204", p.handleCaptiveProbe()).Methods(http.MethodGet)

	p.router.Handle("/", p.handleConnect()).Methods(http.MethodPost)

	p.router.PathPrefix("/").Handler(http.FileServer(http.Dir(config.UiDir))).Methods(http.MethodGet)

	return p
}

func (p *Portal) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.log.Debugf("%v %v", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the portal's routes.
func (p *Portal) Handler() http.Handler {
	return p.router
}

// Start begins serving on the listen address. It returns once the
// listener is bound; serving continues in the background.
func (p *Portal) Start(listen string) error {
	lis, err := net.Listen("tcp", listen)
	if err != nil {
		return errors.Errorf("could not listen on %v: %v", listen, err)
	}

	p.server = &http.Server{
		Handler: p.router,
	}

	go func() {
		err := p.server.Serve(lis)
		if err != nil && err != http.ErrServerClosed {
			p.log.Errorf("Could not serve portal: %v", err)
		}
	}()

	p.log.Infof("Serving portal on %v.", listen)

	return nil
}

// Stop drains in-flight requests and closes the listener, so a final
// response still reaches the browser before the process ends.
func (p *Portal) Stop() error {
	if p.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := p.server.Shutdown(ctx)
	if err != nil {
		return errors.Errorf("could not shut down portal: %v", err)
	}

	return nil
}
