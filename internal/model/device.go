package model

import "time"

// DeviceInfo describes the client device presented at login time.  All
// fields are optional; a login without device info opens no session.
type DeviceInfo struct {
    DeviceID    string `json:"deviceId"`
    DeviceName  string `json:"deviceName"`
    DeviceType  string `json:"deviceType"` // Web, Mobile, Desktop, ...
    IPAddress   string `json:"ipAddress"`
    UserAgent   string `json:"userAgent"`
    OSInfo      string `json:"osInfo"`
    BrowserInfo string `json:"browserInfo"`
    Location    string `json:"location"`
}

// DeviceSession is one authenticated device/browser instance for a user.
type DeviceSession struct {
    SessionID        string     `json:"sessionId"`
    DeviceInfo       DeviceInfo `json:"deviceInfo"`
    LoginTime        time.Time  `json:"loginTime"`
    LastActivityTime time.Time  `json:"lastActivityTime"`
    IPAddress        string     `json:"ipAddress"`
    CurrentDevice    bool       `json:"currentDevice"`
}
