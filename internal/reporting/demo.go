package reporting

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oakhamlabs/waypost/internal/model"
)

// Demo SLO configuration shared by every series. Values random-walk
// inside [0, 1] around the target so statuses drift between polls.
const (
	demoSLOTarget   = 0.5
	demoHysteresis  = 0.03
	demoWalkStep    = 0.08
	demoKeepSamples = 128
)

var (
	demoErrorLower = 0.1
	demoWarnLower  = 0.2
	demoWarnUpper  = 0.8
	demoErrorUpper = 0.9
)

// The demo topology is a small game platform: a mobile API path and a
// browser path sharing leaderboard, profile, and store backends.
// Services carry availability SLIs, endpoints latency SLIs.
var demoTopology = []struct {
	service   string
	endpoints []string
}{
	{"APIServer", []string{"StartGame", "UpdateGameState"}},
	{"WebServer", []string{"GetProfilePage", "GetLeaderboardPage", "BuyCurrency"}},
	{"GameService", []string{"GetPlayerLocation", "GetScore"}},
	{"LeaderboardService", []string{"GetLeaderboard", "SetUserHighScore", "GetUserHighScore"}},
	{"ProfileService", []string{"Authenticate", "GetUserInfo"}},
	{"StoreService", []string{"VerifyPayment"}},
	{"GameDB", []string{"ReadHighScore", "WriteHighScore"}},
	{"ProfileDB", []string{"ReadFriendsList", "WriteFriendsList"}},
	{"ExternalAuthProvider", nil},
	{"ExternalPaymentProvider", nil},
}

var demoDependencies = map[string][]string{
	"APIServer.StartGame": {"APIServer.UpdateGameState"},
	"APIServer.UpdateGameState": {
		"GameService.GetPlayerLocation",
		"GameService.GetScore",
		"LeaderboardService.SetUserHighScore",
	},
	"WebServer.GetLeaderboardPage": {"LeaderboardService.GetLeaderboard"},
	"WebServer.GetProfilePage": {
		"ProfileService.Authenticate",
		"ProfileService.GetUserInfo",
	},
	"WebServer.BuyCurrency":               {"StoreService.VerifyPayment"},
	"LeaderboardService.GetLeaderboard":   {"GameDB.ReadHighScore"},
	"LeaderboardService.SetUserHighScore": {"GameDB.WriteHighScore"},
	"LeaderboardService.GetUserHighScore": {"GameDB.ReadHighScore"},
	"ProfileService.Authenticate":         {"ExternalAuthProvider"},
	"ProfileService.GetUserInfo": {
		"LeaderboardService.GetUserHighScore",
		"ProfileDB.ReadFriendsList",
	},
	"StoreService.VerifyPayment": {"ExternalPaymentProvider"},
}

var demoClients = []struct {
	client   string
	journeys []string
}{
	{"MobileClient", []string{"PlayGame"}},
	{"WebBrowser", []string{"ViewLeaderboard", "ViewProfile", "ConductMicrotransaction"}},
}

var demoJourneyDeps = map[string][]string{
	"MobileClient.PlayGame":              {"APIServer.StartGame"},
	"WebBrowser.ViewLeaderboard":         {"WebServer.GetLeaderboardPage"},
	"WebBrowser.ViewProfile":             {"WebServer.GetProfilePage"},
	"WebBrowser.ConductMicrotransaction": {"WebServer.BuyCurrency"},
}

// DemoProvider serves the fixed game-platform topology with SLI values
// that take one random-walk step per poll. It backs `waypost reportd`
// and the integration tests.
type DemoProvider struct {
	mu      sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
	series  []demoSeries
	values  map[string]float64
	history map[string][]*model.SLI
}

type demoSeries struct {
	nodeName string
	sliType  model.SLIType
}

func (s demoSeries) key() string { return s.nodeName + "/" + string(s.sliType) }

// NewDemoProvider seeds the random walk; the same seed reproduces the
// same value sequence.
func NewDemoProvider(seed int64) *DemoProvider {
	p := &DemoProvider{
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
		values:  make(map[string]float64),
		history: make(map[string][]*model.SLI),
	}
	for _, t := range demoTopology {
		p.series = append(p.series, demoSeries{nodeName: t.service, sliType: model.SLIAvailability})
		for _, e := range t.endpoints {
			p.series = append(p.series, demoSeries{nodeName: t.service + "." + e, sliType: model.SLILatency})
		}
	}
	for _, s := range p.series {
		p.values[s.key()] = p.rng.Float64()
	}
	return p
}

// Nodes returns fresh topology structs on every call; callers own them.
func (p *DemoProvider) Nodes(_ context.Context) ([]*model.Node, error) {
	var services, endpoints []*model.Node
	for _, t := range demoTopology {
		svc := &model.Node{Name: t.service, Type: model.NodeTypeService}
		for _, e := range t.endpoints {
			name := t.service + "." + e
			svc.ChildNames = append(svc.ChildNames, name)
			ep := &model.Node{Name: name, Type: model.NodeTypeEndpoint, ParentName: t.service}
			for _, target := range demoDependencies[name] {
				ep.Dependencies = append(ep.Dependencies, &model.Dependency{SourceName: name, TargetName: target})
			}
			endpoints = append(endpoints, ep)
		}
		services = append(services, svc)
	}
	return append(services, endpoints...), nil
}

func (p *DemoProvider) Clients(_ context.Context) ([]*model.Client, error) {
	var clients []*model.Client
	for _, d := range demoClients {
		c := &model.Client{Name: d.client}
		for _, j := range d.journeys {
			name := d.client + "." + j
			uj := &model.UserJourney{Name: name, ClientName: d.client}
			for _, target := range demoJourneyDeps[name] {
				uj.Dependencies = append(uj.Dependencies, &model.Dependency{
					SourceName: name,
					TargetName: target,
					Toplevel:   true,
				})
			}
			c.UserJourneys = append(c.UserJourneys, uj)
		}
		clients = append(clients, c)
	}
	return clients, nil
}

// SLIs advances every series by one step, then returns the matching
// samples. With no time range only the latest sample per series is
// returned; otherwise all retained samples inside the range.
func (p *DemoProvider) SLIs(_ context.Context, req *SLIRequest) ([]*model.SLI, error) {
	if req == nil {
		req = &SLIRequest{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.step()

	var nameSet, typeSet map[string]bool
	if len(req.NodeNames) > 0 {
		nameSet = make(map[string]bool, len(req.NodeNames))
		for _, n := range req.NodeNames {
			nameSet[n] = true
		}
	}
	if len(req.Types) > 0 {
		typeSet = make(map[string]bool, len(req.Types))
		for _, t := range req.Types {
			typeSet[string(t)] = true
		}
	}

	var out []*model.SLI
	for _, s := range p.series {
		if nameSet != nil && !nameSet[s.nodeName] {
			continue
		}
		if typeSet != nil && !typeSet[string(s.sliType)] {
			continue
		}
		h := p.history[s.key()]
		if req.Start == nil && req.End == nil {
			out = append(out, h[len(h)-1].Clone())
			continue
		}
		for _, sample := range h {
			if req.Start != nil && sample.Timestamp.Before(*req.Start) {
				continue
			}
			if req.End != nil && sample.Timestamp.After(*req.End) {
				continue
			}
			out = append(out, sample.Clone())
		}
	}
	return out, nil
}

// step moves every series one walk step and records the sample.
// Callers must hold mu.
func (p *DemoProvider) step() {
	ts := p.now()
	for _, s := range p.series {
		key := s.key()
		v := p.values[key] + (p.rng.Float64()-0.5)*2*demoWalkStep
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		p.values[key] = v
		h := append(p.history[key], demoSample(s, v, ts))
		if len(h) > demoKeepSamples {
			h = h[len(h)-demoKeepSamples:]
		}
		p.history[key] = h
	}
}

func demoSample(s demoSeries, value float64, ts time.Time) *model.SLI {
	return &model.SLI{
		NodeName:                   s.nodeName,
		Type:                       s.sliType,
		Value:                      value,
		SLOTarget:                  demoSLOTarget,
		Timestamp:                  ts,
		WarnLowerBound:             &demoWarnLower,
		WarnUpperBound:             &demoWarnUpper,
		ErrorLowerBound:            &demoErrorLower,
		ErrorUpperBound:            &demoErrorUpper,
		IntraStatusChangeThreshold: demoHysteresis,
	}
}
