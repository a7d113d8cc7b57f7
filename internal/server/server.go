// Package server serves a produced mirror: the archived webfinger and
// static resources, nodeinfo discovery, and redirect lookups for legacy
// URLs that were mapped during archival.
package server

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/mizunashi-mana/archivedon"
	"github.com/mizunashi-mana/archivedon/internal/config"
	"github.com/mizunashi-mana/archivedon/internal/resource"
	"github.com/mizunashi-mana/archivedon/nodeinfo"
	"github.com/mizunashi-mana/archivedon/webfinger"
)

type Server struct {
	conf       config.Config
	store      *resource.Store
	exposeBase *url.URL

	// decoded webfinger and redirect documents, keyed by file path
	cache *cache.Cache
}

func New(conf config.Config) (*Server, error) {
	store, err := resource.Open(conf.Server.ResourceDir)
	if err != nil {
		return nil, err
	}
	exposeBase, err := url.Parse(conf.Server.ExposeURLBase)
	if err != nil {
		return nil, errors.Wrapf(err, "parse exposeUrlBase %s", conf.Server.ExposeURLBase)
	}
	return &Server{
		conf:       conf,
		store:      store,
		exposeBase: exposeBase,
		cache:      cache.New(10*time.Minute, 15*time.Minute),
	}, nil
}

func (s *Server) Run() error {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if s.conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(archivedon.ProgName))
	}

	s.RegisterRoutes(e)

	return e.Start(net.JoinHostPort(s.conf.Server.Addr, fmt.Sprintf("%d", s.conf.Server.Port)))
}

func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.handleIndex)
	e.GET("/.well-known/webfinger", s.handleWebfinger)
	e.GET("/.well-known/nodeinfo", s.handleNodeinfoDiscovery)
	e.GET("/archivedon/nodeinfo/:version", s.handleNodeinfo)
	e.Static("/static", s.store.Paths().StaticRoot())
	e.RouteNotFound("/*", s.handleFallback)
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.File(s.store.Paths().IndexHTML())
}

func (s *Server) handleWebfinger(c echo.Context) error {
	subject := c.QueryParam("resource")
	if subject == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource parameter is required"})
	}

	found, err := s.loadWebfinger(subject)
	if err != nil {
		if errors.Is(err, resource.NotFoundError{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resource"})
	}

	// Filter a copy; the cached document keeps all links.
	filtered := *found
	filtered.Links = append([]webfinger.Link(nil), found.Links...)
	filtered.FilterLinks(c.QueryParams()["rel"])

	body, err := json.Marshal(&filtered)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to encode resource"})
	}
	return c.Blob(http.StatusOK, webfinger.MediaType, body)
}

func (s *Server) loadWebfinger(subject string) (*webfinger.Resource, error) {
	key := "webfinger:" + subject
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*webfinger.Resource), nil
	}
	found, err := s.store.LoadWebfinger(subject)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, found)
	return found, nil
}

func (s *Server) handleNodeinfoDiscovery(c echo.Context) error {
	return c.JSON(http.StatusOK, &nodeinfo.Discovery{
		Links: []nodeinfo.DiscoveryItem{
			{
				Rel:  nodeinfo.SchemaRel,
				Href: s.exposeBase.JoinPath("archivedon", "nodeinfo", "2.1.json").String(),
			},
		},
	})
}

func (s *Server) handleNodeinfo(c echo.Context) error {
	version := c.Param("version")
	if version != "2.1.json" && version != "2.1" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unsupported nodeinfo version"})
	}

	document := &nodeinfo.NodeInfo{
		Version: "2.1",
		Software: nodeinfo.SoftwareItems{
			Name:       archivedon.ProgName,
			Version:    archivedon.ProgVersion,
			Repository: archivedon.ProgRepository,
		},
		Protocols: []string{"activitypub"},
		Services: nodeinfo.ServicesItems{
			Inbound:  []string{},
			Outbound: []string{},
		},
		OpenRegistrations: false,
		Metadata: nodeinfo.MetadataItems{
			NodeName:        s.conf.NodeInfo.NodeName,
			NodeDescription: s.conf.NodeInfo.NodeDescription,
		},
	}
	return c.JSON(http.StatusOK, document)
}

// handleFallback resolves legacy URLs against the redirect map. Anything
// the map does not know is gone, not missing: the archive replaces a dead
// server.
func (s *Server) handleFallback(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return c.String(http.StatusGone, "Gone")
	}

	host := c.Request().Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	redirects, err := s.loadRedirectMap(host, c.Request().URL.Path)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load redirect map"})
	}
	if redirects == nil {
		return c.String(http.StatusGone, "Gone")
	}

	target := resolveByAccept(redirects, c.Request().Header.Get("Accept"))
	if target == nil {
		return c.String(http.StatusGone, "Gone")
	}
	return c.Redirect(http.StatusMovedPermanently, target.String())
}

func (s *Server) loadRedirectMap(host, path string) (*resource.RedirectMap, error) {
	key := "redirect:" + host + ":" + path
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*resource.RedirectMap), nil
	}
	redirects, err := s.store.LoadRedirectMap(host, path)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, redirects)
	return redirects, nil
}

// resolveByAccept tries each Accept token exactly, in header order and
// with parameters stripped, then falls back to the wildcard entry. No
// quality values, no wildcard subtype matching.
func resolveByAccept(redirects *resource.RedirectMap, accept string) *url.URL {
	for _, token := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(token, ";")
		mediaType = strings.TrimSpace(mediaType)
		if mediaType == "" {
			continue
		}
		if target := redirects.Resolve(mediaType); target != nil {
			return target
		}
	}
	return redirects.Resolve("*/*")
}
