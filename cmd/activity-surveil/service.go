// activity-surveil - activity triggered audio and video recording
//  Copyright (C) 2024, Shepherd1226
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"
	"github.com/rs/zerolog"

	"github.com/Shepherd1226/Activity-Surveil/controller"
)

const (
	dbusName = "org.shepherd.activitysurveil"
	dbusPath = "/org/shepherd/activitysurveil"
)

type service struct {
	ctrl *controller.Controller
	dir  string
	log  zerolog.Logger
}

func startService(ctrl *controller.Controller, dir string, log zerolog.Logger) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := &service{
		ctrl: ctrl,
		dir:  dir,
		log:  log,
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")

	log.Info().Str("name", dbusName).Msg("d-bus service started")
	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// TakeSnapshot saves the most recent frame as a still and returns its path.
func (s *service) TakeSnapshot() (string, *dbus.Error) {
	path := filepath.Join(s.dir, "snapshot-"+time.Now().Format("20060102-150405")+".jpg")
	if err := s.ctrl.WriteSnapshot(path); err != nil {
		return "", &dbus.Error{
			Name: dbusName + ".TakeSnapshot",
			Body: []interface{}{err.Error()},
		}
	}
	s.log.Info().Str("path", path).Msg("snapshot written")
	return path, nil
}

// Status reports whether a recording session is open.
func (s *service) Status() (string, *dbus.Error) {
	return s.ctrl.Status(), nil
}
