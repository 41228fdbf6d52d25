package portal

import (
	"fmt"
	"net/http"
)

type networkResponse struct {
	Ssid     string `json:"ssid"`
	Security string `json:"security"`
}

func (p *Portal) handleGetNetworks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aps := p.provisioner.AccessPoints()

		res := make([]*networkResponse, 0, len(aps))
		for _, ap := range aps {
			res = append(res, &networkResponse{
				Ssid:     ap.Ssid,
				Security: ap.Security.String(),
			})
		}

		p.jsonResponse(w, res, http.StatusOK)
	}
}

func (p *Portal) handleCaptiveProbe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := fmt.Sprintf("http://%v/", p.address)

		p.log.Debugf("Redirecting captive probe %v to %v", r.URL.Path, target)

		http.Redirect(w, r, target, http.StatusMovedPermanently)
	}
}

func (p *Portal) handleConnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			p.log.Errorf("Could not parse submission: %v", err)
			p.textResponse(w, "ERROR")
			return
		}

		ssid := r.PostFormValue("ssid")
		identity := r.PostFormValue("identity")
		passphrase := r.PostFormValue("passphrase")

		// a hidden ssid overrides the selection; its security can't be
		// inspected, so it is treated as password-secured
		hidden := false
		if hiddenSsid := r.PostFormValue("hidden-ssid"); hiddenSsid != "" {
			ssid = hiddenSsid
			hidden = true
		}

		err := p.provisioner.Connect(ssid, identity, passphrase, hidden)
		if err != nil {
			p.log.Warnf("Connection attempt failed: %v", err)
			p.textResponse(w, "ERROR")
			return
		}

		p.textResponse(w, "OK")
	}
}
