package xpu

import "unsafe"

// Memcpy moves bytes between two pointers the active driver can reach,
// inferring the copy direction from the pointer kinds. Blocking.
func Memcpy(dst, src unsafe.Pointer, bytes uintptr) error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.driver.Memcpy(dst, src, bytes)
}

// Memset writes value to each of bytes bytes at dst. Blocking.
func Memset(dst unsafe.Pointer, value byte, bytes uintptr) error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.driver.Memset(dst, value, bytes)
}

// DeviceSynchronize blocks until all work previously issued on the
// active backend's current device has completed.
func DeviceSynchronize() error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.driver.DeviceSynchronize()
}

// SelectDevice makes the active backend's device at index current and
// returns its record. The global id is assigned on first selection of
// each (backend, index) pair and is stable until Shutdown.
func SelectDevice(index int) (DeviceRecord, error) {
	r, err := current()
	if err != nil {
		return DeviceRecord{}, err
	}
	if err := r.driver.SetDevice(index); err != nil {
		return DeviceRecord{}, err
	}

	k := deviceKey{backend: r.backend, index: index}
	r.deviceMu.Lock()
	id, ok := r.deviceIDs[k]
	if !ok {
		id = r.nextDeviceID
		r.nextDeviceID++
		r.deviceIDs[k] = id
	}
	r.deviceMu.Unlock()

	return DeviceRecord{GlobalID: id, Backend: r.backend, Index: index}, nil
}

// GetDeviceProperties reports the properties of the active backend's
// device at index.
func GetDeviceProperties(index int) (DeviceProperties, error) {
	r, err := current()
	if err != nil {
		return DeviceProperties{}, err
	}
	return r.driver.GetProperties(index)
}

// MemInfo reports free and total global memory on the active backend's
// current device.
func MemInfo() (free, total uint64, err error) {
	r, err := current()
	if err != nil {
		return 0, 0, err
	}
	return r.driver.MemInfo()
}
