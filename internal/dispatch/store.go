package dispatch

import (
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/models"
)

// GormRoster resolves operator visibility from the class roster tables.
type GormRoster struct {
    DB *gorm.DB
}

// VisibleDeviceIDs returns every device the operator may see: admins see all
// devices in their school, teachers see the devices of their classes.
func (r *GormRoster) VisibleDeviceIDs(operatorID string) ([]string, error) {
    var user models.User
    if err := r.DB.Where("user_id = ?", operatorID).First(&user).Error; err != nil {
        return nil, err
    }

    var ids []string
    if user.Role == "admin" {
        err := r.DB.Model(&models.Device{}).
            Where("school_id = ?", user.SchoolID).
            Pluck("device_id", &ids).Error
        return ids, err
    }

    err := r.DB.Model(&models.ClassStudent{}).
        Distinct("class_students.device_id").
        Joins("JOIN class_teachers ct ON ct.class_id = class_students.class_id").
        Where("ct.user_id_ref = ?", operatorID).
        Pluck("class_students.device_id", &ids).Error
    return ids, err
}

// GormModes records the last accepted command on the device row.
type GormModes struct {
    DB *gorm.DB
}

func (m *GormModes) RecordMode(deviceID string, mode models.Mode) error {
    var device models.Device
    if err := m.DB.Where("device_id = ?", deviceID).First(&device).Error; err != nil {
        return err
    }
    device.SetMode(mode)
    return m.DB.Model(&models.Device{}).
        Where("device_id = ?", deviceID).
        Updates(map[string]any{
            "mode_kind":        device.ModeKind,
            "locked_url":       device.LockedURL,
            "flight_path_id":   device.FlightPathID,
            "flight_path_name": device.FlightPathName,
            "allowed_domains":  device.AllowedDomains,
        }).Error
}
