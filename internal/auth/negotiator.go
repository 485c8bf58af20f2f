package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/vesync-core/internal/cloud"
	"github.com/nerrad567/vesync-core/internal/infrastructure/logging"
)

// Login endpoint paths.
const (
	pathAuthByPWD       = "/globalPlatform/api/accountAuth/v1/authByPWDOrOTM"
	pathLoginByAuthCode = "/user/api/accountManage/v1/loginByAuthorizeCode4Vesync"
	pathLegacyLogin     = "/cloud/v1/user/login"
)

// state tracks negotiation progress. States are observability only;
// the negotiation itself is driven by the candidate loop in Login.
type state int

const (
	stateUnauthenticated state = iota
	stateAwaitingStep1
	stateAwaitingStep2
	stateLegacyFallback
	stateAuthenticated
	stateFailed
)

// String returns the state name for log output.
func (s state) String() string {
	switch s {
	case stateUnauthenticated:
		return "unauthenticated"
	case stateAwaitingStep1:
		return "awaiting_step1"
	case stateAwaitingStep2:
		return "awaiting_step2"
	case stateLegacyFallback:
		return "legacy_fallback"
	case stateAuthenticated:
		return "authenticated"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Credentials are the account details and optional placement overrides
// supplied by the caller. Region and CountryCode narrow the search when
// set; when empty the negotiator probes defaults.
type Credentials struct {
	Username    string
	Password    string
	Region      string
	CountryCode string
}

// candidate is one (endpoint region, country code) pair to attempt.
type candidate struct {
	region      string
	countryCode string
}

// Negotiator establishes cloud sessions. It holds no session itself;
// Login returns a fresh Session on every successful call, so re-login
// is simply calling Login again and replacing the previous value.
type Negotiator struct {
	client *cloud.Client
	creds  Credentials
	log    *logging.Logger
	state  state
}

// NewNegotiator creates a negotiator for the given account.
func NewNegotiator(client *cloud.Client, creds Credentials, log *logging.Logger) *Negotiator {
	return &Negotiator{
		client: client,
		creds:  creds,
		log:    log,
		state:  stateUnauthenticated,
	}
}

// Login runs the full negotiation and returns an authenticated session.
//
// The two-step flow is attempted against each (region, countryCode)
// candidate in order, caller-declared values first. If every candidate
// is rejected at the protocol level, the legacy single-step login is
// attempted over the same candidates. Transport faults abort the search
// immediately; credential rejection across all candidates returns
// ErrAuthFailed.
func (n *Negotiator) Login(ctx context.Context) (*cloud.Session, error) {
	if n.creds.Username == "" || n.creds.Password == "" {
		return nil, ErrMissingCredentials
	}

	candidates := n.candidates()
	var lastReject error

	for _, cand := range candidates {
		sess, err := n.twoStep(ctx, cand)
		if err == nil {
			n.state = stateAuthenticated
			n.log.Info("authenticated",
				"flow", "two_step",
				"region", sess.Region,
				"country_code", sess.CountryCode,
				"token", logging.Mask(sess.Token))
			return sess, nil
		}
		if abortErr := classify(err); abortErr != nil {
			n.state = stateFailed
			return nil, abortErr
		}
		lastReject = err
		n.log.Debug("two-step login rejected",
			"region", cand.region,
			"country_code", cand.countryCode,
			"error", err)
	}

	n.state = stateLegacyFallback
	for _, cand := range candidates {
		sess, err := n.legacy(ctx, cand)
		if err == nil {
			n.state = stateAuthenticated
			n.log.Info("authenticated",
				"flow", "legacy",
				"region", sess.Region,
				"country_code", sess.CountryCode,
				"token", logging.Mask(sess.Token))
			return sess, nil
		}
		if abortErr := classify(err); abortErr != nil {
			n.state = stateFailed
			return nil, abortErr
		}
		lastReject = err
		n.log.Debug("legacy login rejected",
			"region", cand.region,
			"country_code", cand.countryCode,
			"error", err)
	}

	n.state = stateFailed
	return nil, fmt.Errorf("%w: %w", ErrAuthFailed, lastReject)
}

// classify returns a non-nil error when the search must stop rather
// than move to the next candidate. Transport faults and rate limiting
// abort; semantic rejections (wrong password, cross region, unknown
// codes) let the search continue.
func classify(err error) error {
	if errors.Is(err, cloud.ErrTransport) {
		return err
	}
	if errors.Is(err, cloud.ErrRateLimited) {
		return err
	}
	return nil
}

// candidates builds the ordered (region, countryCode) search space.
// The caller's declared region and country code come first; within
// each region the regional default country code is the fallback.
func (n *Negotiator) candidates() []candidate {
	regions := []string{cloud.RegionUS, cloud.RegionEU}
	if strings.EqualFold(n.creds.Region, cloud.RegionEU) {
		regions = []string{cloud.RegionEU, cloud.RegionUS}
	}

	var out []candidate
	seen := make(map[candidate]struct{})
	add := func(region, cc string) {
		c := candidate{region: region, countryCode: cc}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for _, region := range regions {
		if n.creds.CountryCode != "" {
			add(region, strings.ToUpper(n.creds.CountryCode))
		}
		add(region, defaultCountryCode(region))
	}
	return out
}

// defaultCountryCode returns the country code probed when the caller
// declared none for a region.
func defaultCountryCode(region string) string {
	if region == cloud.RegionEU {
		return "DE"
	}
	return "US"
}

// twoStep runs the two-request flow: credentials for a short-lived
// authorization code, then the code for a session token. The country
// code is declared separately in each step; the cloud may answer step
// two with a different country code and region than were sent, and the
// returned session reflects what the cloud reported.
func (n *Negotiator) twoStep(ctx context.Context, cand candidate) (*cloud.Session, error) {
	n.state = stateAwaitingStep1

	body := n.client.NewEnvelope("authByPWDOrOTM")
	body["email"] = n.creds.Username
	body["password"] = cloud.HashPassword(n.creds.Password)
	body["userCountryCode"] = cand.countryCode
	body["authProtocolType"] = "generic"

	raw, err := n.client.Post(ctx, cand.region, pathAuthByPWD, body, nil)
	if err != nil {
		return nil, err
	}

	var step1 struct {
		AuthorizeCode string `json:"authorizeCode"`
		BizToken      string `json:"bizToken"`
	}
	if err := json.Unmarshal(raw, &step1); err != nil || step1.AuthorizeCode == "" {
		return nil, errors.New("auth: step one returned no authorization code")
	}

	n.state = stateAwaitingStep2

	body = n.client.NewEnvelope("loginByAuthorizeCode4Vesync")
	body["authorizeCode"] = step1.AuthorizeCode
	body["userCountryCode"] = cand.countryCode
	if step1.BizToken != "" {
		body["bizToken"] = step1.BizToken
	}

	raw, err = n.client.Post(ctx, cand.region, pathLoginByAuthCode, body, nil)
	if err != nil {
		return nil, err
	}

	var step2 struct {
		Token         string `json:"token"`
		AccountID     string `json:"accountID"`
		CountryCode   string `json:"countryCode"`
		CurrentRegion string `json:"currentRegion"`
		BizToken      string `json:"bizToken"`
	}
	if err := json.Unmarshal(raw, &step2); err != nil {
		return nil, fmt.Errorf("auth: decoding step two response: %w", err)
	}
	if step2.Token == "" || step2.AccountID == "" {
		return nil, errors.New("auth: step two returned an incomplete session")
	}

	return n.session(cand, step2.Token, step2.AccountID, step2.CountryCode, step2.CurrentRegion, step2.BizToken), nil
}

// legacy runs the single-step username/password login older accounts
// still require.
func (n *Negotiator) legacy(ctx context.Context, cand candidate) (*cloud.Session, error) {
	body := n.client.NewEnvelope("login")
	body["email"] = n.creds.Username
	body["password"] = cloud.HashPassword(n.creds.Password)
	body["userType"] = "1"
	body["devToken"] = ""

	raw, err := n.client.Post(ctx, cand.region, pathLegacyLogin, body, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Token       string `json:"token"`
		AccountID   string `json:"accountID"`
		CountryCode string `json:"countryCode"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("auth: decoding legacy login response: %w", err)
	}
	if result.Token == "" || result.AccountID == "" {
		return nil, errors.New("auth: legacy login returned an incomplete session")
	}

	return n.session(cand, result.Token, result.AccountID, result.CountryCode, "", ""), nil
}

// session assembles the Session, preferring cloud-reported placement
// over the candidate values that were sent.
func (n *Negotiator) session(cand candidate, token, accountID, countryCode, region, bizToken string) *cloud.Session {
	if countryCode == "" {
		countryCode = cand.countryCode
	}
	if region == "" {
		region = cand.region
	}
	return &cloud.Session{
		Token:       token,
		AccountID:   accountID,
		CountryCode: countryCode,
		Region:      strings.ToUpper(region),
		BizToken:    bizToken,
	}
}
