package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fundwatch/internal/config"
)

// 传输层故障时重试一次，重试前退避等待
const (
	transportRetryCount   = 1
	transportRetryBackoff = 500 * time.Millisecond
)

// BridgeClient 终端网桥客户端
// 通过本地HTTP网桥服务访问交易终端，终端进程本身只允许单会话
type BridgeClient struct {
	baseURL      *url.URL
	httpClient   *http.Client
	terminalPath string
	logger       *zap.Logger
}

// bridgeEnvelope 网桥响应的统一外层结构
type bridgeEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// loginPayload 登录请求体
type loginPayload struct {
	Login    int64  `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

// initializePayload 初始化请求体
type initializePayload struct {
	Path string `json:"path,omitempty"`
}

// NewBridgeClient 创建终端网桥客户端
func NewBridgeClient(cfg config.TerminalConfig, logger *zap.Logger) (*BridgeClient, error) {
	raw := strings.TrimSpace(cfg.BridgeURL)
	if raw == "" {
		return nil, fmt.Errorf("终端网桥地址不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("解析终端网桥地址失败: %w", err)
	}

	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &BridgeClient{
		baseURL:      parsed,
		httpClient:   &http.Client{Timeout: timeout},
		terminalPath: cfg.TerminalPath,
		logger:       logger,
	}, nil
}

// SetHTTPClient 替换HTTP客户端，用于测试
func (c *BridgeClient) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Initialize 建立终端连接
func (c *BridgeClient) Initialize(ctx context.Context) error {
	payload := initializePayload{Path: c.terminalPath}
	if err := c.doRequest(ctx, http.MethodPost, "/initialize", nil, payload, nil); err != nil {
		return fmt.Errorf("初始化终端失败: %w", err)
	}
	return nil
}

// Login 将终端的活动会话切换到指定账号
func (c *BridgeClient) Login(ctx context.Context, login int64, password, server string) error {
	payload := loginPayload{Login: login, Password: password, Server: server}
	if err := c.doRequest(ctx, http.MethodPost, "/login", nil, payload, nil); err != nil {
		return fmt.Errorf("登录账户 %d 失败: %w", login, err)
	}
	return nil
}

// AccountInfo 查询当前活动账户快照
func (c *BridgeClient) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.doRequest(ctx, http.MethodGet, "/account_info", nil, nil, &info); err != nil {
		return nil, fmt.Errorf("获取账户快照失败: %w", err)
	}
	return &info, nil
}

// Positions 查询当前活动账户的全部持仓
func (c *BridgeClient) Positions(ctx context.Context) ([]*Position, error) {
	var positions []*Position
	if err := c.doRequest(ctx, http.MethodGet, "/positions", nil, nil, &positions); err != nil {
		return nil, fmt.Errorf("获取持仓列表失败: %w", err)
	}
	return positions, nil
}

// HistoryDeals 查询当前活动账户指定时间范围内的历史成交
func (c *BridgeClient) HistoryDeals(ctx context.Context, from, to time.Time) ([]*Deal, error) {
	query := url.Values{}
	query.Set("from", strconv.FormatInt(from.Unix(), 10))
	query.Set("to", strconv.FormatInt(to.Unix(), 10))

	var deals []*Deal
	if err := c.doRequest(ctx, http.MethodGet, "/history_deals", query, nil, &deals); err != nil {
		return nil, fmt.Errorf("获取历史成交失败: %w", err)
	}
	return deals, nil
}

// Shutdown 关闭终端连接
func (c *BridgeClient) Shutdown(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/shutdown", nil, nil, nil); err != nil {
		return fmt.Errorf("关闭终端失败: %w", err)
	}
	return nil
}

// doRequest 执行一次网桥请求，传输层故障退避后重试一次
// 业务拒绝（如凭证错误）不重试
func (c *BridgeClient) doRequest(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= transportRetryCount; attempt++ {
		if attempt > 0 {
			c.logger.Debug("终端请求重试",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))

			timer := time.NewTimer(transportRetryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
			case <-timer.C:
			}
		}

		err := c.doRequestOnce(ctx, method, path, query, payload, out)
		if err == nil {
			return nil
		}
		// 仅传输层故障才值得重试
		if !errors.Is(err, ErrTransport) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *BridgeClient) doRequestOnce(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: 读取响应失败: %v", ErrTransport, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: 网桥状态码 %d", ErrTransport, resp.StatusCode)
	}

	var envelope bridgeEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: 解析响应失败: %v", ErrTransport, err)
	}

	if !envelope.Success {
		// 登录接口的业务拒绝归类为凭证错误，其余归类为传输层故障
		if path == "/login" || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %s", ErrLoginRejected, envelope.Message)
		}
		return fmt.Errorf("%w: %s", ErrTransport, envelope.Message)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("解析响应数据失败: %w", err)
		}
	}

	return nil
}
