// Package discovery finds candidate streaming hosts on the local network
// using mDNS/DNS-SD (Bonjour). Media devices such as IP cameras, smart TVs,
// and media servers commonly advertise _rtsp._tcp or _http._tcp services,
// which makes mDNS a cheap way to seed a scan without sweeping a subnet.
package discovery
