/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package genieacs

import "strings"

// DefaultProjection lists the parameter subtrees the reconciliation
// engine reads. Anything else stays on the server.
var DefaultProjection = []string{
	"_id",
	"_deviceId._SerialNumber",
	"_deviceId._Manufacturer",
	"_deviceId._ProductClass",
	"_deviceId._OUI",
	"_lastInform",
	"InternetGatewayDevice.DeviceInfo.SerialNumber",
	"InternetGatewayDevice.DeviceInfo.Manufacturer",
	"InternetGatewayDevice.DeviceInfo.ModelName",
	"InternetGatewayDevice.DeviceInfo.ProductClass",
	"InternetGatewayDevice.DeviceInfo.SoftwareVersion",
	"InternetGatewayDevice.DeviceInfo.HardwareVersion",
	"InternetGatewayDevice.DeviceInfo.UpTime",
	"InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANPPPConnection.1.ExternalIPAddress",
	"InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANIPConnection.1.ExternalIPAddress",
	"InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANPPPConnection.1.MACAddress",
	"InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANIPConnection.1.MACAddress",
	"InternetGatewayDevice.WANDevice.2.WANConnectionDevice.1.WANIPConnection.1.MACAddress",
	"InternetGatewayDevice.WANDevice.2.WANConnectionDevice.1.WANPPPConnection.1.MACAddress",
	"InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANPPPConnection.1.Username",
	"InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANPPPConnection.1.Password",
	"InternetGatewayDevice.WANDevice.2.WANConnectionDevice.1.WANPPPConnection.1.Username",
	"InternetGatewayDevice.WANDevice.2.WANConnectionDevice.1.WANPPPConnection.1.Password",
	"InternetGatewayDevice.WANDevice.1.X_FH_GponInterfaceConfig",
	"InternetGatewayDevice.WANDevice.2.X_FH_GponInterfaceConfig",
	"InternetGatewayDevice.ManagementServer.ConnectionRequestUsername",
	"InternetGatewayDevice.WiFi.MultiAP.APDevice",
	"InternetGatewayDevice.WiFi.MultiAP.Enable",
	"InternetGatewayDevice.LANDevice.1.Hosts",
	"InternetGatewayDevice.LANDevice.1.WLANConfiguration",
	"InternetGatewayDevice.LANDevice.1.LANHostConfigManagement.DNSServers",
	"InternetGatewayDevice.LANDevice.1.LANHostConfigManagement.IPInterface.1.IPInterfaceIPAddress",
	"InternetGatewayDevice.LANDevice.1.LANHostConfigManagement.IPRouters",
	"InternetGatewayDevice.LANDevice.1.LANHostConfigManagement.MinAddress",
	"InternetGatewayDevice.LANDevice.1.LANHostConfigManagement.MaxAddress",
}

func projectionParam(paths []string) string {
	return strings.Join(paths, ",")
}
