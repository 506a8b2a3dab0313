package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultLoginMethod  = "oauth"
	maxOAuthResponseLen = 1 << 20
)

// OAuthConfig はOAuth 2.0 / OpenID Connectプロバイダーの設定。
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// LoginMethod はusers.login_methodに記録する値。空の場合は"oauth"。
	LoginMethod string
	// HTTPClient が未指定の場合は10秒タイムアウトのクライアントを使う。
	HTTPClient *http.Client
}

// OAuthCodeProvider は認可コードフローでユーザーのopenIdを取得する。
type OAuthCodeProvider struct {
	config OAuthConfig
	client *http.Client
}

// NewOAuthCodeProvider はOAuthCodeProviderを生成する。
func NewOAuthCodeProvider(config OAuthConfig) *OAuthCodeProvider {
	if config.LoginMethod == "" {
		config.LoginMethod = defaultLoginMethod
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuthCodeProvider{config: config, client: client}
}

// GetLoginURL は認可エンドポイントへのURLを生成する。
func (p *OAuthCodeProvider) GetLoginURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
	}
	sep := "?"
	if strings.Contains(p.config.AuthURL, "?") {
		sep = "&"
	}
	return p.config.AuthURL + sep + params.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// userInfoResponse はユーザー情報エンドポイントのレスポンス。
// OIDC標準のsubを優先し、openIdを返すIdPにも対応する。
type userInfoResponse struct {
	Sub         string `json:"sub"`
	OpenID      string `json:"openId"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	LoginMethod string `json:"loginMethod"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
func (p *OAuthCodeProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	info, err := p.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	openID := info.Sub
	if openID == "" {
		openID = info.OpenID
	}
	loginMethod := info.LoginMethod
	if loginMethod == "" {
		loginMethod = p.config.LoginMethod
	}

	return &OAuthUserInfo{
		OpenID:      openID,
		Email:       info.Email,
		Name:        info.Name,
		LoginMethod: loginMethod,
	}, nil
}

func (p *OAuthCodeProvider) exchangeToken(ctx context.Context, code string) (*tokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("empty access token in response")
	}
	return &token, nil
}

func (p *OAuthCodeProvider) fetchUserInfo(ctx context.Context, accessToken string) (*userInfoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var info userInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}
	if info.Sub == "" && info.OpenID == "" {
		return nil, errors.New("user info response has no subject")
	}
	return &info, nil
}

// do はリクエストを送信し、200以外のステータスをエラーとして返す。
func (p *OAuthCodeProvider) do(req *http.Request) ([]byte, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOAuthResponseLen))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s responded with status %d: %s", req.URL.Host, resp.StatusCode, string(body))
	}
	return body, nil
}

// compile-time interface check
var _ OAuthProvider = (*OAuthCodeProvider)(nil)
